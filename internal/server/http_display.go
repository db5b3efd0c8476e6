package server

import "fmt"

func (s *Server) displayServerInfo(addr string) {
	scheme := "http"
	if s.TLSConfig.Mode == TLSModeServer || s.TLSConfig.Mode == TLSModeMutual {
		scheme = "https"
	}
	fmt.Printf("Listening on %s://%s\n", scheme, addr)

	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayLimits()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health                   - Health check (send the model key to probe models)")
	fmt.Println("  GET  /stats                    - Server statistics")
	fmt.Println("  POST /v1/resume/parse          - Parse a PDF or DOCX resume into a profile")
	fmt.Println("  POST /v1/job/analyze           - Extract requirements from a job posting")
	fmt.Println("  POST /v1/resume/generate       - Generate a tailored resume")
	fmt.Println("  POST /v1/ats/score             - Score a profile against a job posting")
	fmt.Println("  POST /v1/cover-letter/generate - Generate a cover letter")
	fmt.Println("  POST /v1/generate              - Resume, ATS score and cover letter together")
	fmt.Println("  POST /v1/profile/validate      - Validate a profile (no model call)")
	fmt.Printf("Model endpoints require the %s header\n", s.CredentialHeader)
}

func (s *Server) displayAuthInfo() {
	if n := s.APIKeys.Len(); n > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", n)
		if s.KeyRotator != nil {
			fmt.Println("  - Keys are rotated from Vault")
		}
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayLimits() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("WARNING: No request size limit configured!")
	}

	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	} else {
		fmt.Println("Rate limiting: DISABLED")
	}

	if s.CertReloader != nil && s.CertReloader.Watching() {
		fmt.Println("TLS certificate reload on change: ENABLED")
	}
}
