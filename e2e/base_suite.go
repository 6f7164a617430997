package e2e

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.IntakeAddr == "" {
		s.T().Skip("INTAKE_ADDR not set, skipping e2e suite")
	}
	s.client = &http.Client{
		Timeout: 10 * time.Second,
		// Redirects are asserted, not followed
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
}

// Step prints a colorized header for a scenario step in logs
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

func (s *BaseSuite) Get(path string) *http.Response {
	start := time.Now()
	resp, err := s.client.Get(strings.TrimRight(s.Config.IntakeAddr, "/") + path)
	s.Require().NoError(err)
	s.logResponse(http.MethodGet, path, resp, start)
	return resp
}

func (s *BaseSuite) PostForm(path string, form url.Values) *http.Response {
	start := time.Now()
	resp, err := s.client.PostForm(strings.TrimRight(s.Config.IntakeAddr, "/")+path, form)
	s.Require().NoError(err)
	s.logResponse(http.MethodPost, path, resp, start)
	return resp
}

func (s *BaseSuite) logResponse(method, path string, resp *http.Response, start time.Time) {
	line := fmt.Sprintf("HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.Colours {
		style := color.FgCyan
		if resp.StatusCode >= http.StatusBadRequest {
			style = color.FgYellow
		}
		line = style.Render(line)
	}
	s.T().Log(line)
}
