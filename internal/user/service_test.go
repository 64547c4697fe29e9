package user_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rotaworks/workforce-auth/internal"
	"github.com/rotaworks/workforce-auth/internal/auth"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/account"
	"github.com/rotaworks/workforce-auth/internal/core/datamodel/employee"
	"github.com/rotaworks/workforce-auth/internal/user"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

type mockAccountRepo struct {
	byID    map[int64]*account.Account
	byEmail map[string]*account.Account
	deleted []int64
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{
		byID:    make(map[int64]*account.Account),
		byEmail: make(map[string]*account.Account),
	}
}

func (m *mockAccountRepo) add(acct *account.Account) {
	m.byID[acct.ID] = acct
	m.byEmail[acct.Email] = acct
}

func (m *mockAccountRepo) GetByID(id int64) (*account.Account, error) {
	acct, ok := m.byID[id]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return acct, nil
}

func (m *mockAccountRepo) GetByEmail(email string) (*account.Account, error) {
	acct, ok := m.byEmail[email]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return acct, nil
}

func (m *mockAccountRepo) SetActive(id int64, active bool) error {
	acct, ok := m.byID[id]
	if !ok {
		return internal.ErrUserNotFound
	}
	acct.IsActive = active
	return nil
}

func (m *mockAccountRepo) Delete(id int64) error {
	acct, ok := m.byID[id]
	if !ok {
		return internal.ErrUserNotFound
	}
	delete(m.byID, id)
	delete(m.byEmail, acct.Email)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockLinkRepo struct {
	byWorkforceID map[int64]*employee.RegisteredUser
	deleted       []int64
}

func newMockLinkRepo() *mockLinkRepo {
	return &mockLinkRepo{byWorkforceID: make(map[int64]*employee.RegisteredUser)}
}

func (m *mockLinkRepo) GetByWorkforceID(workforceID int64) (*employee.RegisteredUser, error) {
	link, ok := m.byWorkforceID[workforceID]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return link, nil
}

func (m *mockLinkRepo) ListPending() ([]employee.RegisteredUser, error) {
	var out []employee.RegisteredUser
	for _, link := range m.byWorkforceID {
		if link.PendingApproval {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (m *mockLinkRepo) LinkAccount(workforceID, accountID int64) error {
	link, ok := m.byWorkforceID[workforceID]
	if !ok {
		return internal.ErrUserNotFound
	}
	link.AccountID = &accountID
	link.PendingApproval = false
	return nil
}

func (m *mockLinkRepo) Delete(workforceID int64) error {
	if _, ok := m.byWorkforceID[workforceID]; !ok {
		return internal.ErrUserNotFound
	}
	delete(m.byWorkforceID, workforceID)
	m.deleted = append(m.deleted, workforceID)
	return nil
}

type mockMailer struct {
	granted []string
}

func (m *mockMailer) SendApprovalRequest(adminEmail, registrantEmail string) error { return nil }

func (m *mockMailer) SendApprovalGranted(registrantEmail string) error {
	m.granted = append(m.granted, registrantEmail)
	return nil
}

var _ = Describe("UserService", func() {
	var (
		accounts *mockAccountRepo
		links    *mockLinkRepo
		mailer   *mockMailer
		service  *user.Service
	)

	BeforeEach(func() {
		accounts = newMockAccountRepo()
		links = newMockLinkRepo()
		mailer = &mockMailer{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(accounts, links, mailer, nil, logger)

		accounts.add(&account.Account{
			ID:       5,
			Email:    "new.hire@example.com",
			Name:     "New Hire",
			IsActive: false,
		})
		links.byWorkforceID[101] = &employee.RegisteredUser{
			WorkforceID:     101,
			Email:           "new.hire@example.com",
			Name:            "New",
			LastName:        "Hire",
			PendingApproval: true,
			CreatedAt:       time.Now(),
		}
	})

	Describe("Me", func() {
		It("should return the profile for the principal", func() {
			accounts.add(&account.Account{ID: 1, Email: "jane@example.com", Name: "Jane", IsActive: true})

			profile, err := service.Me(&auth.Principal{AccountID: 1, WorkforceUserID: 77})
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Email).To(Equal("jane@example.com"))
			Expect(profile.WorkforceUserID).To(Equal(int64(77)))
		})
	})

	Describe("ListPendingRegistrations", func() {
		It("should list only pending links", func() {
			links.byWorkforceID[102] = &employee.RegisteredUser{
				WorkforceID: 102, Email: "settled@example.com",
			}

			pending, err := service.ListPendingRegistrations()
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(1))
			Expect(pending[0].WorkforceID).To(Equal(int64(101)))
		})
	})

	Describe("ApproveRegistration", func() {
		It("should activate, link and notify", func() {
			Expect(service.ApproveRegistration(101)).To(Succeed())

			Expect(accounts.byID[5].IsActive).To(BeTrue())
			link := links.byWorkforceID[101]
			Expect(link.PendingApproval).To(BeFalse())
			Expect(link.AccountID).NotTo(BeNil())
			Expect(*link.AccountID).To(Equal(int64(5)))
			Expect(mailer.granted).To(ConsistOf("new.hire@example.com"))
		})

		It("should reject an unknown registration", func() {
			err := service.ApproveRegistration(999)
			Expect(err).To(Equal(internal.ErrUserNotFound))
		})

		It("should reject a registration that is not pending", func() {
			links.byWorkforceID[101].PendingApproval = false

			err := service.ApproveRegistration(101)
			Expect(err).To(HaveOccurred())
			Expect(accounts.byID[5].IsActive).To(BeFalse())
		})
	})

	Describe("RejectRegistration", func() {
		It("should remove the link and the inactive account", func() {
			Expect(service.RejectRegistration(101)).To(Succeed())

			Expect(links.deleted).To(ConsistOf(int64(101)))
			Expect(accounts.deleted).To(ConsistOf(int64(5)))
			Expect(links.byWorkforceID).NotTo(HaveKey(int64(101)))
		})

		It("should still remove the link when no account was created", func() {
			delete(accounts.byID, 5)
			delete(accounts.byEmail, "new.hire@example.com")

			Expect(service.RejectRegistration(101)).To(Succeed())
			Expect(links.deleted).To(ConsistOf(int64(101)))
		})

		It("should reject a registration that is not pending", func() {
			links.byWorkforceID[101].PendingApproval = false

			err := service.RejectRegistration(101)
			Expect(err).To(HaveOccurred())
			Expect(links.byWorkforceID).To(HaveKey(int64(101)))
		})
	})
})
