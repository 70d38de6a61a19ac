package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lit-explorer/cache"
	"lit-explorer/config"
	"lit-explorer/errs"
	"lit-explorer/models"
	"lit-explorer/services"
)

// app hält alle Services, die die Routen benötigen.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	cache  *cache.Cache
	search *services.SearchService
	graph  *services.GraphService
	geo    *services.GeoService
	recs   *services.RecommendationService
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// registerValidators macht das Tag "qid" für Request-Bindings verfügbar.
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("qid", func(fl validator.FieldLevel) bool {
			return models.ValidQID(fl.Field().String())
		})
	}
}

// respondError übersetzt die Fehler-Taxonomie in HTTP-Statuscodes.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "query timed out, please narrow your filters"})
	case errors.Is(err, errs.ErrRateLimited), errors.Is(err, errs.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upstream temporarily unavailable, please try again later"})
	default:
		log.Error("Request fehlgeschlagen", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func setupRouter(a *app) *gin.Engine {
	registerValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupHealthRoutes(router, a.cache)
	api := router.Group("/api")
	setupSearchRoutes(api, a.search, a.logger)
	setupAuthorRoutes(api, a.search, a.logger)
	setupGraphRoutes(api, a.graph, a.logger)
	setupGeoRoutes(api, a.geo, a.logger)
	setupRecommendationRoutes(api, a.recs, a.logger)
	setupCacheRoutes(api, a.cfg, a.cache, a.logger)
	return router
}

func setupHealthRoutes(router *gin.Engine, c *cache.Cache) {
	router.GET("/health", func(ctx *gin.Context) {
		pctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		ctx.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"cache": gin.H{
				"backend": c.Backend(),
				"healthy": c.Healthy(pctx),
			},
		})
	})
}

func setupSearchRoutes(rg *gin.RouterGroup, search *services.SearchService, log *zap.Logger) {
	rg.GET("/search/books", func(c *gin.Context) {
		var filters models.SearchFilters
		if err := c.ShouldBindQuery(&filters); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		books, err := search.Search(c.Request.Context(), filters)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
	})

	rg.GET("/search/books/:qid", func(c *gin.Context) {
		book, err := search.GetBook(c.Request.Context(), c.Param("qid"))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, book)
	})
}

func setupAuthorRoutes(rg *gin.RouterGroup, search *services.SearchService, log *zap.Logger) {
	rg.GET("/authors/:qid", func(c *gin.Context) {
		author, err := search.GetAuthor(c.Request.Context(), c.Param("qid"))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, author)
	})

	rg.GET("/authors/:qid/books", func(c *gin.Context) {
		var q struct {
			Limit int `form:"limit" binding:"omitempty,min=1"`
		}
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		books, err := search.AuthorBooks(c.Request.Context(), c.Param("qid"), q.Limit)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
	})
}

type networkQuery struct {
	Authors             []string `form:"authors" binding:"required,min=1,dive,qid"`
	Depth               *int     `form:"depth" binding:"omitempty,min=1,max=3"`
	IncludeCoauthorship *bool    `form:"include_coauthorship"`
	IncludeMovements    *bool    `form:"include_movements"`
}

func setupGraphRoutes(rg *gin.RouterGroup, graph *services.GraphService, log *zap.Logger) {
	rg.GET("/graph/network", func(c *gin.Context) {
		var q networkQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		depth, coauthor, movements := 2, false, true
		if q.Depth != nil {
			depth = *q.Depth
		}
		if q.IncludeCoauthorship != nil {
			coauthor = *q.IncludeCoauthorship
		}
		if q.IncludeMovements != nil {
			movements = *q.IncludeMovements
		}

		data, err := graph.BuildNetwork(c.Request.Context(), q.Authors, depth, coauthor, movements)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, data)
	})
}

type geoQuery struct {
	Layer   string   `form:"layer" binding:"required,oneof=birthplaces deathplaces publications settings"`
	Authors []string `form:"authors" binding:"omitempty,dive,qid"`
	Books   []string `form:"books" binding:"omitempty,dive,qid"`
	Cluster *bool    `form:"cluster"`
}

func setupGeoRoutes(rg *gin.RouterGroup, geo *services.GeoService, log *zap.Logger) {
	rg.GET("/geo/locations", func(c *gin.Context) {
		var q geoQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req := models.GeoRequest{
			Layer:      models.GeoLayer(q.Layer),
			AuthorQIDs: q.Authors,
			BookQIDs:   q.Books,
			Cluster:    q.Cluster == nil || *q.Cluster,
		}
		resp, err := geo.GetPoints(c.Request.Context(), req)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	})

	rg.GET("/geo/author/:qid/locations", func(c *gin.Context) {
		layers, err := geo.AuthorLocations(c.Request.Context(), c.Param("qid"))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"author_qid": c.Param("qid"), "layers": layers})
	})
}

func setupRecommendationRoutes(rg *gin.RouterGroup, recs *services.RecommendationService, log *zap.Logger) {
	rg.GET("/recommendations/similar/:qid", func(c *gin.Context) {
		var q struct {
			Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
		}
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		similar, err := recs.FindSimilar(c.Request.Context(), c.Param("qid"), q.Limit)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"author_qid": c.Param("qid"), "similar": similar})
	})
}

func setupCacheRoutes(rg *gin.RouterGroup, cfg *config.Config, c *cache.Cache, log *zap.Logger) {
	rg.DELETE("/cache", apiKeyAuthMiddleware(cfg), func(ctx *gin.Context) {
		if err := c.DeleteAll(ctx.Request.Context()); err != nil {
			log.Error("Cache konnte nicht geleert werden", zap.Error(err))
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "cache unavailable"})
			return
		}
		log.Info("Cache geleert", zap.String("backend", c.Backend()))
		ctx.JSON(http.StatusOK, gin.H{"message": "cache cleared", "backend": c.Backend()})
	})
}
