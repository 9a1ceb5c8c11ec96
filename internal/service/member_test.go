package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agricoop-backend/internal/domain"
)

type memberFixture struct {
	store  *memStore
	notes  *recordingNotifier
	email  *recordingEmail
	mirror *recordingMirror
	svc    MemberService
	org    domain.Organization
}

func newMemberFixture() *memberFixture {
	store := newMemStore()
	org := store.addOrg(domain.Organization{
		Name:     "Kigezi Growers",
		Features: domain.OrgFeatures{Notifications: true, MembershipMirror: true},
	})
	notes := &recordingNotifier{}
	email := &recordingEmail{}
	mirror := &recordingMirror{}
	return &memberFixture{
		store:  store,
		notes:  notes,
		email:  email,
		mirror: mirror,
		svc:    NewMemberService(store, testRetryCfg, notes, email, mirror),
		org:    org,
	}
}

func completeDraft(orgID int32) *domain.Member {
	return &domain.Member{
		OrgID:            orgID,
		FirstName:        "Amina",
		LastName:         "Okello",
		Phone:            "+256700000001",
		Email:            "amina@example.com",
		NationalID:       "CM1234567",
		Province:         "Central",
		District:         "Wakiso",
		Village:          "Kira",
		FarmName:         "Okello Family Farm",
		FarmSizeAcres:    3.5,
		PrimaryCrop:      "maize",
		IDFrontURL:       "https://docs.example.com/id-front.jpg",
		IDBackURL:        "https://docs.example.com/id-back.jpg",
		FinancialDocURLs: []string{"https://docs.example.com/bank.pdf"},
	}
}

func TestMemberService_CreateDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("Assigns Code And Audits", func(t *testing.T) {
		f := newMemberFixture()
		m, err := f.svc.CreateDraft(ctx, staffActor, &domain.Member{
			OrgID:     f.org.ID,
			FirstName: "Amina",
			// Input cannot smuggle lifecycle state in.
			Status:   domain.MemberStatusActive,
			SeatType: domain.SeatTypePaid,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.MemberStatusDraft, m.Status)
		assert.Equal(t, domain.SeatTypeNone, m.SeatType)
		assert.NotEmpty(t, m.MemberCode)
		assert.Equal(t, int32(1), m.Version)

		entries := f.store.auditFor(m.MemberCode)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.AuditActionCreated, entries[0].Action)
	})

	t.Run("Requires A Name", func(t *testing.T) {
		f := newMemberFixture()
		_, err := f.svc.CreateDraft(ctx, staffActor, &domain.Member{OrgID: f.org.ID})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("Unknown Org", func(t *testing.T) {
		f := newMemberFixture()
		_, err := f.svc.CreateDraft(ctx, staffActor, &domain.Member{OrgID: 999, FirstName: "X"})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestMemberService_UpdateDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("Only Draft Members", func(t *testing.T) {
		f := newMemberFixture()
		active := f.store.addMember(domain.Member{OrgID: f.org.ID, Status: domain.MemberStatusActive})
		update := completeDraft(f.org.ID)
		update.ID = active.ID
		_, err := f.svc.UpdateDraft(ctx, staffActor, update)
		assert.True(t, errors.Is(err, domain.ErrInvalidState))
	})

	t.Run("Lifecycle Fields Are Not Editable", func(t *testing.T) {
		f := newMemberFixture()
		draft := f.store.addMember(domain.Member{OrgID: f.org.ID, Status: domain.MemberStatusDraft, FirstName: "Old"})
		update := completeDraft(f.org.ID)
		update.ID = draft.ID
		update.Status = domain.MemberStatusActive
		update.SeatType = domain.SeatTypePaid
		update.MemberCode = "MBR-FORGED00"

		updated, err := f.svc.UpdateDraft(ctx, staffActor, update)
		require.NoError(t, err)
		assert.Equal(t, domain.MemberStatusDraft, updated.Status)
		assert.Equal(t, domain.SeatTypeNone, updated.SeatType)
		assert.Equal(t, draft.MemberCode, updated.MemberCode)
		assert.Equal(t, "Amina", updated.FirstName)
	})
}

func TestMemberService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Complete Draft Moves To Submitted", func(t *testing.T) {
		f := newMemberFixture()
		draft := completeDraft(f.org.ID)
		draft.Status = domain.MemberStatusDraft
		created := f.store.addMember(*draft)

		m, err := f.svc.Submit(ctx, staffActor, f.org.ID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.MemberStatusSubmitted, m.Status)

		entries := f.store.auditFor(m.MemberCode)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.AuditActionSubmitted, entries[0].Action)
	})

	t.Run("Incomplete Draft Is Rejected", func(t *testing.T) {
		f := newMemberFixture()
		draft := completeDraft(f.org.ID)
		draft.Status = domain.MemberStatusDraft
		draft.FinancialDocURLs = nil
		created := f.store.addMember(*draft)

		_, err := f.svc.Submit(ctx, staffActor, f.org.ID, created.ID)
		assert.True(t, errors.Is(err, domain.ErrValidation))
		assert.Equal(t, domain.MemberStatusDraft, f.store.members[created.ID].Status)
	})

	t.Run("Cannot Submit Twice", func(t *testing.T) {
		f := newMemberFixture()
		draft := completeDraft(f.org.ID)
		draft.Status = domain.MemberStatusSubmitted
		created := f.store.addMember(*draft)

		_, err := f.svc.Submit(ctx, staffActor, f.org.ID, created.ID)
		assert.True(t, errors.Is(err, domain.ErrInvalidState))
	})
}

func TestMemberService_ApproveRejectSuspend(t *testing.T) {
	ctx := context.Background()

	submitted := func(f *memberFixture) domain.Member {
		draft := completeDraft(f.org.ID)
		draft.Status = domain.MemberStatusSubmitted
		userID := int32(7)
		draft.UserID = &userID
		return f.store.addMember(*draft)
	}

	t.Run("Approve Records Verification", func(t *testing.T) {
		f := newMemberFixture()
		m := submitted(f)

		approved, err := f.svc.Approve(ctx, adminActor, f.org.ID, m.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.MemberStatusActive, approved.Status)
		require.NotNil(t, approved.VerifiedBy)
		assert.Equal(t, adminActor.ID, *approved.VerifiedBy)
		assert.NotNil(t, approved.VerifiedAt)

		// Side effects: notification, email, mirror publish.
		require.Len(t, f.notes.calls, 1)
		assert.Equal(t, "membership_status", f.notes.calls[0].Kind)
		assert.Equal(t, []string{"approved"}, f.email.statuses)
		assert.Equal(t, []string{approved.MemberCode}, f.mirror.profiles)
	})

	t.Run("Approve Requires Admin", func(t *testing.T) {
		f := newMemberFixture()
		m := submitted(f)
		_, err := f.svc.Approve(ctx, staffActor, f.org.ID, m.ID)
		assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	})

	t.Run("Reject Requires A Reason", func(t *testing.T) {
		f := newMemberFixture()
		m := submitted(f)
		_, err := f.svc.Reject(ctx, adminActor, f.org.ID, m.ID, "   ")
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("Reject Stores Reason And Audits It", func(t *testing.T) {
		f := newMemberFixture()
		m := submitted(f)
		rejected, err := f.svc.Reject(ctx, adminActor, f.org.ID, m.ID, "documents unreadable")
		require.NoError(t, err)
		assert.Equal(t, domain.MemberStatusRejected, rejected.Status)
		assert.Equal(t, "documents unreadable", rejected.RejectionReason)

		entries := f.store.auditFor(rejected.MemberCode)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.AuditActionRejected, entries[0].Action)
		assert.Equal(t, "documents unreadable", entries[0].Notes)
	})

	t.Run("Suspend Only From Active", func(t *testing.T) {
		f := newMemberFixture()
		m := submitted(f)
		_, err := f.svc.Suspend(ctx, adminActor, f.org.ID, m.ID)
		assert.True(t, errors.Is(err, domain.ErrInvalidState))
	})

	t.Run("Email Failure Does Not Fail Approval", func(t *testing.T) {
		f := newMemberFixture()
		f.email.Fail = errors.New("sendgrid down")
		m := submitted(f)
		approved, err := f.svc.Approve(ctx, adminActor, f.org.ID, m.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.MemberStatusActive, approved.Status)
	})

	t.Run("Wrong Org Is Not Found", func(t *testing.T) {
		f := newMemberFixture()
		m := submitted(f)
		other := f.store.addOrg(domain.Organization{Name: "Other"})
		_, err := f.svc.Approve(ctx, adminActor, other.ID, m.ID)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}
