package endpoints

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api"
	"github.com/Nixie-Tech-LLC/cartelera/internal/http/api/admin/control/packets"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
	"github.com/Nixie-Tech-LLC/cartelera/internal/storage"
)

// LibraryModule lists the media library operators pick images from.
func LibraryModule(store storage.Storage) api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/library", func(ctx *gin.Context, user *model.User) (any, *api.APIError) {
			objects, err := store.List(ctx.Request.Context(), ctx.Query("prefix"))
			if err != nil {
				log.Error().Err(err).Msg("[library] could not list media")
				return nil, api.Internal("could not list media library")
			}

			kind := strings.ToLower(ctx.DefaultQuery("kind", "image"))
			out := make([]packets.LibraryItemResponse, 0, len(objects))
			for _, o := range objects {
				switch kind {
				case "image":
					if !o.IsImage() {
						continue
					}
				case "video":
					if !strings.HasPrefix(o.ContentType, "video/") {
						continue
					}
				}
				out = append(out, packets.LibraryItemResponse{
					Name:        o.Name,
					URL:         o.URL,
					ContentType: o.ContentType,
					Size:        o.Size,
					ModifiedAt:  o.ModifiedAt,
				})
			}
			return out, nil
		})
	})
}
