package handlers

import (
	"context"
	"net/http"
	"time"

	"orca/internal/cache"
	"orca/internal/models"

	"github.com/labstack/echo/v4"
)

const clientsCacheKey = "clients"
const clientsCacheTTL = time.Minute

// ClientLister lists the known clients
type ClientLister interface {
	ListClients(ctx context.Context) ([]models.Client, error)
}

// ClientsHandler returns all non-deleted clients
// @Summary List clients
// @Description Returns id and name of every known client
// @Tags Clients
// @Produce json
// @Success 200 {object} models.ClientsResponse
// @Failure 500 {object} models.ClientsResponse
// @Router /api/clients [get]
func ClientsHandler(store ClientLister, c *cache.Cache) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if cached, found := c.Get(clientsCacheKey); found {
			if response, ok := cached.(models.ClientsResponse); ok {
				return ctx.JSON(http.StatusOK, response)
			}
		}

		clients, err := store.ListClients(ctx.Request().Context())
		if err != nil {
			return ctx.JSON(http.StatusInternalServerError, models.ClientsResponse{})
		}

		response := models.ClientsResponse{Clients: make([]models.ClientInfo, 0, len(clients))}
		for _, client := range clients {
			response.Clients = append(response.Clients, models.ClientInfo{
				ID:   client.ID,
				Name: client.Name,
			})
		}

		c.Set(clientsCacheKey, response, clientsCacheTTL)

		return ctx.JSON(http.StatusOK, response)
	}
}
