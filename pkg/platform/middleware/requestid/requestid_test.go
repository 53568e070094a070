package requestid_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"mobile-gateway/pkg/platform/middleware/requestid"
	"mobile-gateway/pkg/requestcontext"
	"mobile-gateway/pkg/testutil"
)

type RequestIDSuite struct {
	suite.Suite
	handler http.Handler
	gotID   string
}

func TestRequestIDSuite(t *testing.T) {
	suite.Run(t, new(RequestIDSuite))
}

func (s *RequestIDSuite) SetupTest() {
	s.gotID = ""
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.gotID = requestcontext.RequestID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	s.handler = requestid.Middleware(inner)
}

func (s *RequestIDSuite) TestMiddleware() {
	s.Run("reuses an inbound correlation id", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/")
		req.Header.Set(requestid.Header, "upstream-trace-1")

		rr := testutil.DoRequest(s.handler, req)

		s.Equal("upstream-trace-1", s.gotID)
		s.Equal("upstream-trace-1", rr.Header().Get(requestid.Header))
	})

	s.Run("mints a fresh id when none arrives", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/")
		rr := testutil.DoRequest(s.handler, req)

		s.Require().NotEmpty(s.gotID)
		_, err := uuid.Parse(s.gotID)
		s.NoError(err)
		s.Equal(s.gotID, rr.Header().Get(requestid.Header))
	})
}
