package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	limited := s.middleware.RateLimit.Handler()
	s.echo.GET("/route-optima/:coordinates", s.getOptimizedRoute, limited)

	api := s.echo.Group("/api/v1", limited)
	api.GET("/route-optima/:coordinates", s.getOptimizedRoute)
}
