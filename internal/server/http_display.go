package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                                      - Health check")
	fmt.Println("  GET    /stats                                       - Server statistics")
	fmt.Println("  POST   /api/v1/sessions                             - Open a session")
	fmt.Println("  DELETE /api/v1/sessions/{id}                        - Close a session")
	fmt.Println("  POST   /api/v1/sessions/{id}/resume                 - Upload and parse a resume")
	fmt.Println("  GET    /api/v1/sessions/{id}/document               - Current document")
	fmt.Println("  PUT    /api/v1/sessions/{id}/document               - Load a structured document")
	fmt.Println("  PUT    /api/v1/sessions/{id}/job-description        - Set the job description")
	fmt.Println("  POST   /api/v1/sessions/{id}/analyze                - ATS analysis")
	fmt.Println("  GET    /api/v1/sessions/{id}/render                 - Plain-text rendering")
	fmt.Println("  POST   /api/v1/sessions/{id}/edit/open|save|cancel  - Section editing")
	fmt.Println("  POST   /api/v1/sessions/{id}/optimize/...           - Section optimization")
	fmt.Println("  GET    /api/v1/sessions/{id}/export/{format}        - Export (text, pdf, docx)")
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in session API requests")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
