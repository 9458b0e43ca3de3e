package api

import "github.com/gin-gonic/gin"

// Controller is the route group a Module mounts its endpoints on.
type Controller struct {
	Group *gin.RouterGroup
}

func (c *Controller) GET(path string, h HandlerFunc, middleware ...gin.HandlerFunc) {
	c.Group.GET(path, append(middleware, ResolveEndpoint(h))...)
}

func (c *Controller) POST(path string, h HandlerFunc, middleware ...gin.HandlerFunc) {
	c.Group.POST(path, append(middleware, ResolveEndpoint(h))...)
}
