package registration

import (
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
)

var _ = Describe("SessionStore", func() {
	var (
		store *SessionStore
		clock time.Time
		rec   employee.Record
	)

	BeforeEach(func() {
		clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		store = NewSessionStore(10*time.Minute, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
		store.now = func() time.Time { return clock }
		rec = employee.Record{ID: 101, Email: "jane.doe@example.com", Name: "Jane", LastName: "Doe"}
	})

	Describe("Open and Peek", func() {
		It("should return the session bound to the token", func() {
			token, err := store.Open("jane.doe@example.com", rec)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).To(HaveLen(64))

			sess, err := store.Peek(token)
			Expect(err).NotTo(HaveOccurred())
			Expect(sess.Email).To(Equal("jane.doe@example.com"))
			Expect(sess.Employee.ID).To(Equal(int64(101)))
		})

		It("should not consume the session on Peek", func() {
			token, _ := store.Open("jane.doe@example.com", rec)

			_, err := store.Peek(token)
			Expect(err).NotTo(HaveOccurred())

			_, err = store.Peek(token)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should mint distinct tokens for concurrent opens on one email", func() {
			t1, _ := store.Open("jane.doe@example.com", rec)
			t2, _ := store.Open("jane.doe@example.com", rec)
			Expect(t1).NotTo(Equal(t2))
		})
	})

	Describe("expiry", func() {
		It("should report an expired token the same as an unknown one", func() {
			token, _ := store.Open("jane.doe@example.com", rec)

			clock = clock.Add(10*time.Minute + time.Second)

			_, err := store.Peek(token)
			Expect(errors.Is(err, internal.ErrSessionExpired) || err == internal.ErrSessionExpired).To(BeTrue())

			_, unknownErr := store.Peek("no-such-token")
			Expect(unknownErr).To(Equal(err))
		})

		It("should still honour a token just inside the TTL", func() {
			token, _ := store.Open("jane.doe@example.com", rec)

			clock = clock.Add(10 * time.Minute)

			_, err := store.Peek(token)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Close", func() {
		It("should invalidate the token", func() {
			token, _ := store.Open("jane.doe@example.com", rec)
			store.Close(token)

			_, err := store.Peek(token)
			Expect(err).To(HaveOccurred())
		})

		It("should be a no-op for unknown tokens", func() {
			Expect(func() { store.Close("never-issued") }).NotTo(Panic())
		})
	})

	Describe("Sweep", func() {
		It("should remove only expired sessions", func() {
			old, _ := store.Open("old@example.com", rec)

			clock = clock.Add(11 * time.Minute)
			fresh, _ := store.Open("fresh@example.com", rec)

			Expect(store.Sweep()).To(Equal(1))

			_, err := store.Peek(old)
			Expect(err).To(HaveOccurred())
			_, err = store.Peek(fresh)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
