package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	assetsrepo "github.com/mrlokans/readlater/internal/database/assets"
)

// AssetsController serves cached article images.
type AssetsController struct {
	store AssetStore
}

func NewAssetsController(store AssetStore) *AssetsController {
	return &AssetsController{store: store}
}

// GetAsset handles GET /api/assets/:id
// Assets never change once stored, so responses are cacheable forever.
func (ac *AssetsController) GetAsset(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	asset, err := ac.store.GetAssetByID(c.Request.Context(), id)
	if errors.Is(err, assetsrepo.ErrAssetNotFound) {
		respondNotFound(c, "asset")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get asset")
		return
	}

	contentType := asset.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, contentType, asset.Blob)
}
