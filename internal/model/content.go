package model

import "time"

type BlogPost struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Visible   bool      `json:"visible"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceOffering is an agency service listed on the public site.
type ServiceOffering struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon,omitempty"`
	Price       string    `json:"price,omitempty"`
	Visible     bool      `json:"visible"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PortfolioItem struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Client      string    `json:"client,omitempty"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Link        string    `json:"link,omitempty"`
	Visible     bool      `json:"visible"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Testimonial struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Company   string    `json:"company,omitempty"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	Visible   bool      `json:"visible"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Image is an uploaded gallery file.
type Image struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Key          string    `json:"-"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	UploadedBy   *int64    `json:"uploaded_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DashboardStats feeds the admin overview.
type DashboardStats struct {
	Submissions       int `json:"submissions"`
	UnreadSubmissions int `json:"unread_submissions"`
	PendingExport     int `json:"pending_export"`
	ActiveSubscribers int `json:"active_subscribers"`
	NewslettersSent   int `json:"newsletters_sent"`
	BlogPosts         int `json:"blog_posts"`
	PortfolioItems    int `json:"portfolio_items"`
}
