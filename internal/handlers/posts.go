package handlers

import (
	"net/http"
	"strings"

	"github.com/pliu/estate/internal/apierr"
	"github.com/pliu/estate/internal/httputil"
	"github.com/pliu/estate/internal/logging"
	"github.com/pliu/estate/internal/metrics"
	"github.com/pliu/estate/internal/middleware"
	"github.com/pliu/estate/internal/models"
	"github.com/pliu/estate/internal/store"
	"github.com/pliu/estate/internal/validation"
)

// PostData is the listing half of a create/update body. Counts are pointers
// so that an explicit 0 passes "required".
type PostData struct {
	Title     string              `json:"title" validate:"required,max=200"`
	Price     *int                `json:"price" validate:"required,gte=0"`
	Images    []string            `json:"images" validate:"max=20,dive,required"`
	Address   string              `json:"address" validate:"required,max=300"`
	City      string              `json:"city" validate:"required,max=100"`
	Bedroom   *int                `json:"bedroom" validate:"required,gte=0"`
	Bathroom  *int                `json:"bathroom" validate:"required,gte=0"`
	Latitude  string              `json:"latitude"`
	Longitude string              `json:"longitude"`
	Type      models.ListingType  `json:"type" validate:"required,oneof=buy rent"`
	Property  models.PropertyType `json:"property" validate:"required,oneof=apartment house condo land"`
}

type PostDetailData struct {
	Desc       string  `json:"desc"`
	Utilities  *string `json:"utilities"`
	Pet        *string `json:"pet"`
	Income     *string `json:"income"`
	Size       *int    `json:"size" validate:"omitempty,gte=0"`
	School     *int    `json:"school" validate:"omitempty,gte=0"`
	Bus        *int    `json:"bus" validate:"omitempty,gte=0"`
	Restaurant *int    `json:"restaurant" validate:"omitempty,gte=0"`
}

type PostRequest struct {
	PostData   *PostData      `json:"postData" validate:"required"`
	PostDetail PostDetailData `json:"postDetail"`
}

func (req *PostRequest) toModel(ownerID int) *models.Post {
	d := req.PostData
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &models.Post{
		Title:     strings.TrimSpace(d.Title),
		Price:     *d.Price,
		Images:    images,
		Address:   d.Address,
		City:      strings.TrimSpace(d.City),
		Bedroom:   *d.Bedroom,
		Bathroom:  *d.Bathroom,
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Type:      d.Type,
		Property:  d.Property,
		UserID:    ownerID,
		PostDetail: &models.PostDetail{
			Desc:       req.PostDetail.Desc,
			Utilities:  req.PostDetail.Utilities,
			Pet:        req.PostDetail.Pet,
			Income:     req.PostDetail.Income,
			Size:       req.PostDetail.Size,
			School:     req.PostDetail.School,
			Bus:        req.PostDetail.Bus,
			Restaurant: req.PostDetail.Restaurant,
		},
	}
}

type PostHandler struct {
	Store store.Store
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.PostFilter{
		City:     strings.TrimSpace(q.Get("city")),
		Type:     models.ListingType(q.Get("type")),
		Property: models.PropertyType(q.Get("property")),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"bedroom", &filter.Bedroom},
		{"bathroom", &filter.Bathroom},
		{"minPrice", &filter.MinPrice},
		{"maxPrice", &filter.MaxPrice},
	}
	for _, p := range ints {
		n, err := queryInt(r, p.name)
		if err != nil {
			httputil.WriteError(w, r, err)
			return
		}
		*p.dst = n
	}

	if verr := validation.ValidateStruct(filter); verr != nil {
		httputil.WriteError(w, r, apierr.Validation(verr.Error()))
		return
	}

	posts, err := h.Store.ListPosts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, apierr.Internal(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// Get is public; isSaved is only computed for signed-in requesters.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	post, err := h.Store.GetPost(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, storeError(err, "Post not found"))
		return
	}

	if userID := middleware.UserID(r.Context()); userID != 0 {
		saved, err := h.Store.IsPostSaved(r.Context(), userID, post.ID)
		if err != nil {
			httputil.WriteError(w, r, apierr.Internal(err))
			return
		}
		post.IsSaved = saved
	}
	httputil.WriteJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req PostRequest
	if err := decodeBody(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	post := req.toModel(userID)
	if err := h.Store.CreatePost(r.Context(), post); err != nil {
		httputil.WriteError(w, r, apierr.Internal(err))
		return
	}
	metrics.PostsCreated.Inc()

	logging.Ctx(r.Context()).Info().Int("post_id", post.ID).Int("user_id", userID).Msg("Post created")
	httputil.WriteJSON(w, http.StatusCreated, post)
}

// ownedPost loads a post and checks that the requester owns it. The body is
// never consulted, so a non-owner is refused whatever they sent.
func (h *PostHandler) ownedPost(r *http.Request) (*models.Post, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	post, err := h.Store.GetPost(r.Context(), id)
	if err != nil {
		return nil, storeError(err, "Post not found")
	}
	if post.UserID != middleware.UserID(r.Context()) {
		return nil, apierr.Forbidden("Not authorized to modify this post")
	}
	return post, nil
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.ownedPost(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	var req PostRequest
	if err := decodeBody(w, r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	post := req.toModel(existing.UserID)
	post.ID = existing.ID
	if err := h.Store.UpdatePost(r.Context(), post); err != nil {
		httputil.WriteError(w, r, storeError(err, "Post not found"))
		return
	}

	updated, err := h.Store.GetPost(r.Context(), post.ID)
	if err != nil {
		httputil.WriteError(w, r, storeError(err, "Post not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, err := h.ownedPost(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	if err := h.Store.DeletePost(r.Context(), post.ID); err != nil {
		httputil.WriteError(w, r, storeError(err, "Post not found"))
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "Post deleted")
}
