package registration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/registration"
)

type stubRegistrationService struct {
	verifyToken    string
	verifyErr      error
	verifyAddr     string
	completePend   bool
	completeErr    error
	completedToken string
}

func (s *stubRegistrationService) VerifyDetails(ctx context.Context, dto registration.VerifyDTO, sourceAddr string) (string, error) {
	s.verifyAddr = sourceAddr
	if s.verifyErr != nil {
		return "", s.verifyErr
	}
	return s.verifyToken, nil
}

func (s *stubRegistrationService) CompleteRegistration(ctx context.Context, dto registration.CompleteDTO) (bool, error) {
	s.completedToken = dto.Token
	if s.completeErr != nil {
		return false, s.completeErr
	}
	return s.completePend, nil
}

var _ = Describe("RegistrationHandler", func() {
	var (
		service *stubRegistrationService
		handler *registration.Handler
	)

	BeforeEach(func() {
		service = &stubRegistrationService{verifyToken: "tok-123"}
		handler = registration.NewHandler(service, 600)
	})

	Describe("Verify", func() {
		It("should return the session token and TTL", func() {
			body := `{"email":"jane.doe@example.com","last_name":"Doe","date_of_birth":"17/03/1990","phone":"07911 123456"}`
			req := httptest.NewRequest(http.MethodPost, "/register/verify", strings.NewReader(body))
			req.RemoteAddr = "203.0.113.9:51234"
			w := httptest.NewRecorder()

			handler.Verify(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))

			var resp registration.VerifyResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Token).To(Equal("tok-123"))
			Expect(resp.ExpiresIn).To(Equal(600))
			Expect(service.verifyAddr).To(Equal("203.0.113.9"))
		})

		It("should prefer the forwarded address behind a proxy", func() {
			req := httptest.NewRequest(http.MethodPost, "/register/verify", strings.NewReader(`{"email":"a@b.c"}`))
			req.RemoteAddr = "10.0.0.1:80"
			req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
			w := httptest.NewRecorder()

			handler.Verify(w, req)

			Expect(service.verifyAddr).To(Equal("198.51.100.7"))
		})

		It("should map a verification failure to 401", func() {
			service.verifyErr = internal.ErrVerificationFailed

			req := httptest.NewRequest(http.MethodPost, "/register/verify", strings.NewReader(`{"email":"a@b.c"}`))
			w := httptest.NewRecorder()

			handler.Verify(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should map rate limiting to 429", func() {
			service.verifyErr = internal.ErrTooManyAttempts

			req := httptest.NewRequest(http.MethodPost, "/register/verify", strings.NewReader(`{"email":"a@b.c"}`))
			w := httptest.NewRecorder()

			handler.Verify(w, req)

			Expect(w.Code).To(Equal(http.StatusTooManyRequests))
		})

		It("should reject a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/register/verify", strings.NewReader("{not json"))
			w := httptest.NewRecorder()

			handler.Verify(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Complete", func() {
		It("should report pending approval", func() {
			service.completePend = true

			body := `{"token":"tok-123","password":"secret password","confirm_password":"secret password"}`
			req := httptest.NewRequest(http.MethodPost, "/register/complete", strings.NewReader(body))
			w := httptest.NewRecorder()

			handler.Complete(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))

			var resp registration.CompleteResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.PendingApproval).To(BeTrue())
			Expect(resp.Message).To(ContainSubstring("approval"))
			Expect(service.completedToken).To(Equal("tok-123"))
		})

		It("should report an immediately usable account", func() {
			body := `{"token":"tok-123","password":"secret password","confirm_password":"secret password"}`
			req := httptest.NewRequest(http.MethodPost, "/register/complete", strings.NewReader(body))
			w := httptest.NewRecorder()

			handler.Complete(w, req)

			Expect(w.Code).To(Equal(http.StatusCreated))

			var resp registration.CompleteResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.PendingApproval).To(BeFalse())
			Expect(resp.Message).To(ContainSubstring("log in"))
		})

		It("should map an expired session to 401", func() {
			service.completeErr = internal.ErrSessionExpired

			body := `{"token":"stale","password":"x","confirm_password":"x"}`
			req := httptest.NewRequest(http.MethodPost, "/register/complete", strings.NewReader(body))
			w := httptest.NewRecorder()

			handler.Complete(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should map a taken email to 409", func() {
			service.completeErr = internal.ErrEmailTaken

			body := `{"token":"tok-123","password":"x","confirm_password":"x"}`
			req := httptest.NewRequest(http.MethodPost, "/register/complete", strings.NewReader(body))
			w := httptest.NewRecorder()

			handler.Complete(w, req)

			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})
})
