package blog

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Alp4ka/keypager"
)

// OutcomeHeader reports how the pagination state of a listed page was
// obtained: fresh, resumed or fell_back_to_default.
const OutcomeHeader = "X-Pagination-Outcome"

// Resource exposes CRUD and paginated listing of one entity over HTTP:
//
//	GET    /<name>?size&sortBy&direction&token&<filter fields>
//	POST   /<name>
//	GET    /<name>/:<key>
//	PUT    /<name>/:<key>
//	DELETE /<name>/:<key>
type Resource[T any, P any] struct {
	Repo     *Repository[T, P]
	KeyParam string
	// ParseKey converts the path parameter into a primary key value.
	ParseKey func(string) (any, error)
	// BindCreate decodes a new entity from the request body.
	BindCreate func(c *gin.Context) (*T, error)
	// BindUpdate decodes the request body and returns the change to apply.
	BindUpdate func(c *gin.Context) (func(*T), error)
	Logger     *zap.Logger
}

type listQuery struct {
	Size      int    `form:"size"`
	SortBy    string `form:"sortBy"`
	Direction string `form:"direction"`
	Token     string `form:"token"`
}

func (r *Resource[T, P]) Register(router gin.IRouter) {
	g := router.Group("/" + r.Repo.Name())
	g.GET("", r.list)
	g.POST("", r.create)

	key := "/:" + r.KeyParam
	g.GET(key, r.get)
	g.PUT(key, r.update)
	g.DELETE(key, r.delete)
}

func (r *Resource[T, P]) list(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		r.fail(c, http.StatusBadRequest, err)
		return
	}

	var filter P
	if err := c.ShouldBindQuery(&filter); err != nil {
		r.fail(c, http.StatusBadRequest, err)
		return
	}

	page, err := r.Repo.Page(c.Request.Context(), keypager.PaginateParam[P]{
		Size:      q.Size,
		SortBy:    q.SortBy,
		Direction: keypager.Direction(q.Direction),
		Filter:    filter,
	}, q.Token)
	if err != nil {
		r.handleError(c, err)
		return
	}

	c.Header(OutcomeHeader, page.Outcome.String())
	c.JSON(http.StatusOK, page)
}

func (r *Resource[T, P]) create(c *gin.Context) {
	row, err := r.BindCreate(c)
	if err != nil {
		r.fail(c, http.StatusBadRequest, err)
		return
	}

	if err = r.Repo.Create(c.Request.Context(), row); err != nil {
		r.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, row)
}

func (r *Resource[T, P]) get(c *gin.Context) {
	key, err := r.ParseKey(c.Param(r.KeyParam))
	if err != nil {
		r.fail(c, http.StatusBadRequest, err)
		return
	}

	row, err := r.Repo.Get(c.Request.Context(), key)
	if err != nil {
		r.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

func (r *Resource[T, P]) update(c *gin.Context) {
	key, err := r.ParseKey(c.Param(r.KeyParam))
	if err != nil {
		r.fail(c, http.StatusBadRequest, err)
		return
	}

	apply, err := r.BindUpdate(c)
	if err != nil {
		r.fail(c, http.StatusBadRequest, err)
		return
	}

	row, err := r.Repo.Update(c.Request.Context(), key, apply)
	if err != nil {
		r.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

func (r *Resource[T, P]) delete(c *gin.Context) {
	key, err := r.ParseKey(c.Param(r.KeyParam))
	if err != nil {
		r.fail(c, http.StatusBadRequest, err)
		return
	}

	if err = r.Repo.Delete(c.Request.Context(), key); err != nil {
		r.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (r *Resource[T, P]) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		r.fail(c, http.StatusNotFound, err)
	case errors.Is(err, ErrConflict):
		r.fail(c, http.StatusConflict, err)
	case errors.Is(err, keypager.ErrInvalidParam), errors.Is(err, keypager.ErrUnknownColumn):
		r.fail(c, http.StatusBadRequest, err)
	default:
		r.Logger.Error(
			"request failed",
			zap.String("entity", r.Repo.Name()),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Error(err),
		)
		r.fail(c, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func (r *Resource[T, P]) fail(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// StringKey accepts any non-empty path parameter.
func StringKey(s string) (any, error) {
	if s == "" {
		return nil, errors.New("empty key")
	}

	return s, nil
}

// UintKey accepts decimal unsigned integer keys.
func UintKey(s string) (any, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id '%s'", s)
	}

	return uint(id), nil
}

// BindJSON decodes the request body into a new value of type R and converts
// it with fn.
func BindJSON[R any, O any](fn func(R) O) func(c *gin.Context) (O, error) {
	return func(c *gin.Context) (O, error) {
		var req R
		if err := c.ShouldBindJSON(&req); err != nil {
			var zero O
			return zero, err
		}

		return fn(req), nil
	}
}

func NewPost(req CreatePostRequest) *Post {
	return &Post{Slug: req.Slug, Title: req.Title, Content: req.Content}
}

func PatchPost(req UpdatePostRequest) func(*Post) {
	return func(p *Post) {
		if req.Title != nil {
			p.Title = *req.Title
		}
		if req.Content != nil {
			p.Content = *req.Content
		}
	}
}

func NewUser(req CreateUserRequest) *User {
	return &User{Username: req.Username, Name: req.Name, Bio: req.Bio}
}

func PatchUser(req UpdateUserRequest) func(*User) {
	return func(u *User) {
		if req.Name != nil {
			u.Name = *req.Name
		}
		if req.Bio != nil {
			u.Bio = *req.Bio
		}
	}
}
