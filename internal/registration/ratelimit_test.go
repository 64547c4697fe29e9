package registration

import (
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rotaworks/workforce-auth/internal/core/datamodel/ratelimit"
)

type stubRateLimitRepo struct {
	counters    map[string]*ratelimit.Counter
	getErr      error
	recordErr   error
	recordCalls int
	lastCutoff  time.Time
}

func newStubRateLimitRepo() *stubRateLimitRepo {
	return &stubRateLimitRepo{counters: make(map[string]*ratelimit.Counter)}
}

func (s *stubRateLimitRepo) Get(sourceAddr string) (*ratelimit.Counter, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.counters[sourceAddr], nil
}

func (s *stubRateLimitRepo) RecordAttempt(sourceAddr string, windowExpiredBefore time.Time) error {
	s.recordCalls++
	s.lastCutoff = windowExpiredBefore
	if s.recordErr != nil {
		return s.recordErr
	}
	counter, ok := s.counters[sourceAddr]
	if !ok || counter.LastAttempt.Before(windowExpiredBefore) {
		s.counters[sourceAddr] = &ratelimit.Counter{SourceAddr: sourceAddr, Attempts: 1, LastAttempt: time.Now()}
		return nil
	}
	counter.Attempts++
	counter.LastAttempt = time.Now()
	return nil
}

var _ = Describe("RateLimiter", func() {
	var (
		repo    *stubRateLimitRepo
		limiter *RateLimiter
		clock   time.Time
	)

	BeforeEach(func() {
		repo = newStubRateLimitRepo()
		clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		limiter = NewRateLimiter(repo, 3, time.Hour, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
		limiter.now = func() time.Time { return clock }
	})

	Describe("Allow", func() {
		It("should allow an address it has never seen", func() {
			allowed, err := limiter.Allow("203.0.113.9")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("should allow while the counter is below the limit", func() {
			repo.counters["203.0.113.9"] = &ratelimit.Counter{
				SourceAddr:  "203.0.113.9",
				Attempts:    2,
				LastAttempt: clock.Add(-time.Minute),
			}

			allowed, err := limiter.Allow("203.0.113.9")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("should reject once the counter reaches the limit", func() {
			repo.counters["203.0.113.9"] = &ratelimit.Counter{
				SourceAddr:  "203.0.113.9",
				Attempts:    3,
				LastAttempt: clock.Add(-time.Minute),
			}

			allowed, err := limiter.Allow("203.0.113.9")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})

		It("should allow again once the window has elapsed", func() {
			repo.counters["203.0.113.9"] = &ratelimit.Counter{
				SourceAddr:  "203.0.113.9",
				Attempts:    3,
				LastAttempt: clock.Add(-time.Hour),
			}

			allowed, err := limiter.Allow("203.0.113.9")
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("should surface repository failures", func() {
			repo.getErr = errors.New("connection refused")

			allowed, err := limiter.Allow("203.0.113.9")
			Expect(err).To(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})
	})

	Describe("RecordAttempt", func() {
		It("should pass the window cutoff to the repository", func() {
			limiter.RecordAttempt("203.0.113.9")

			Expect(repo.recordCalls).To(Equal(1))
			Expect(repo.lastCutoff).To(Equal(clock.Add(-time.Hour)))
		})

		It("should swallow repository failures", func() {
			repo.recordErr = errors.New("connection refused")
			Expect(func() { limiter.RecordAttempt("203.0.113.9") }).NotTo(Panic())
		})
	})

	Describe("NewRateLimiter", func() {
		It("should clamp an absurd limit", func() {
			l := NewRateLimiter(repo, 50000, time.Hour, slog.Default())
			Expect(l.limit).To(Equal(1000))
		})

		It("should substitute defaults for zero values", func() {
			l := NewRateLimiter(repo, 0, 0, slog.Default())
			Expect(l.limit).To(Equal(50))
			Expect(l.window).To(Equal(time.Hour))
		})
	})
})
