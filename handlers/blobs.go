package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/intern-track/services/blobstore"
	"github.com/sahilchouksey/intern-track/utils/response"
)

// ServeMemoryBlob serves objects of the in-memory blob store under
// /blobs/<key>. It is only mounted when Spaces is not configured.
func ServeMemoryBlob(store *blobstore.MemoryStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, contentType, ok := store.Get(c.Params("*"))
		if !ok {
			return response.NotFound(c, "Object not found")
		}
		if contentType != "" {
			c.Set(fiber.HeaderContentType, contentType)
		}
		return c.Send(data)
	}
}
