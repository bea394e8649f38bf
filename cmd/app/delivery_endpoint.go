package main

import (
	"net/http"

	"github.com/topsucces-code/mientior-backend/internal/services"

	"github.com/labstack/echo/v4"
)

// registerDeliveryRoutes mounts the delivery estimate and shipping rate
// lookups the product page polls.
//
//	GET /delivery-estimates?productId=&variantId=&location=&shippingMethod=
//	GET /shipping-options
func registerDeliveryRoutes(g *echo.Group, ds *services.DeliveryService, rates *services.ShippingRates) {
	g.GET("/delivery-estimates", func(c echo.Context) error {
		res, err := ds.GetEstimates(
			c.Request().Context(),
			c.QueryParam("productId"),
			optionalQuery(c, "variantId"),
			optionalQuery(c, "location"),
			optionalQuery(c, "shippingMethod"),
		)
		if err != nil {
			return serviceFailure(c, err)
		}
		return c.JSON(http.StatusOK, res)
	})

	g.GET("/shipping-options", func(c echo.Context) error {
		return c.JSON(http.StatusOK, rates.Options())
	})
}

func optionalQuery(c echo.Context, name string) *string {
	if v := c.QueryParam(name); v != "" {
		return &v
	}
	return nil
}
