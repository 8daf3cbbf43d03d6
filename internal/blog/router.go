package blog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Alp4ka/keypager"
)

type Deps struct {
	DB         *gorm.DB
	Codec      keypager.TokenCodec
	Pagination keypager.Config
	Logger     *zap.Logger
	Metrics    *Metrics
}

// NewRouter wires the repositories and handlers of posts and users.
func NewRouter(deps Deps) (*gin.Engine, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	repoCfg := RepositoryConfig{
		Pagination: deps.Pagination,
		Logger:     logger,
		Metrics:    deps.Metrics,
	}

	posts, err := NewRepository[Post, PostFilter](deps.DB, deps.Codec, PostFilterFunc, repoCfg)
	if err != nil {
		return nil, err
	}
	users, err := NewRepository[User, UserFilter](deps.DB, deps.Codec, UserFilterFunc, repoCfg)
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), AccessLog(logger, deps.Metrics))

	(&Resource[Post, PostFilter]{
		Repo:       posts,
		KeyParam:   "slug",
		ParseKey:   StringKey,
		BindCreate: BindJSON(NewPost),
		BindUpdate: BindJSON(PatchPost),
		Logger:     logger,
	}).Register(engine)

	(&Resource[User, UserFilter]{
		Repo:       users,
		KeyParam:   "id",
		ParseKey:   UintKey,
		BindCreate: BindJSON(NewUser),
		BindUpdate: BindJSON(PatchUser),
		Logger:     logger,
	}).Register(engine)

	engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	return engine, nil
}
