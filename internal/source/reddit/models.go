package reddit

// listingResponse mirrors the Reddit listing JSON shape.
type listingResponse struct {
	Data listingData `json:"data"`
}

type listingData struct {
	After    string         `json:"after"`
	Children []listingChild `json:"children"`
}

type listingChild struct {
	Data postData `json:"data"`
}

type postData struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
	Score      int     `json:"score"`
	URL        string  `json:"url"`
	Subreddit  string  `json:"subreddit"`
}
