package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/image-cache-server/pkg/s"
	"github.com/terrycain/image-cache-server/pkg/utils"
)

// Cache is the read side of cache.Store used by the handlers.
type Cache interface {
	GetFull() []s.ObjectEntry
	GetFolder(name string) ([]s.ObjectEntry, bool)
	TriggerFolder(name string)
}

type Handlers struct {
	Cache Cache
	Debug bool
}

func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Image cache server is running"})
}

func (h *Handlers) ListImages(c *gin.Context) {
	c.JSON(http.StatusOK, h.Cache.GetFull())
}

// ListFolderImages serves a cached folder. The first request for a folder kicks off a background listing
// and answers with an empty array; clients poll again to see the populated listing.
func (h *Handlers) ListFolderImages(c *gin.Context) {
	folder := utils.CleanFolderName(c.Param("folder"))
	if folder == "" {
		c.JSON(http.StatusOK, h.Cache.GetFull())
		return
	}

	if entries, ok := h.Cache.GetFolder(folder); ok {
		c.JSON(http.StatusOK, entries)
		return
	}

	log.Debug().Str("folder", folder).Msg("Folder not cached yet, listing in background")
	h.Cache.TriggerFolder(folder)
	c.JSON(http.StatusOK, []s.ObjectEntry{})
}
