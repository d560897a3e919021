package domain

// Article is one document of the news articles collection.
type Article struct {
	ID        string `bson:"id" json:"id"`
	Title     string `bson:"title" json:"title"`
	Content   string `bson:"content" json:"content"`
	MediaType string `bson:"media-type" json:"media-type"`
	Source    string `bson:"source" json:"source"`
	Published string `bson:"published" json:"published"`
}

const (
	MediaNews = "News"
	MediaBlog = "Blog"
)
