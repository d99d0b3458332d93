package dto

// NewLinkRequest GET /new 的查询参数
type NewLinkRequest struct {
	URL string `form:"url"`
}
