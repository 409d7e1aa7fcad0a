package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edutransit/internal/app/models"
	"github.com/yigit/edutransit/internal/app/models/dto"
	"github.com/yigit/edutransit/internal/pkg/apperrors"
	pkgauth "github.com/yigit/edutransit/internal/pkg/auth"
)

func TestRegisterStudentCreatesParent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()
	grade := f.db.addGrade("10", "A")

	resp, err := f.svc.Management.RegisterMember(ctx, b.manager.ID, &dto.RegisterMemberRequest{
		Role:            "student",
		Username:        "newkid",
		Email:           "newkid@school.test",
		ClassInChargeID: &grade.ID,
		BusID:           &b.bus.ID,
		ParentDetails:   &dto.ParentDetails{Name: "newparent", Email: "newparent@school.test"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Student account created successfully", resp.Message)
	assert.Len(t, resp.MemberPassword, pkgauth.GeneratedPasswordLength)
	assert.Equal(t, "newparent", resp.ParentUsername)

	kid, err := f.db.stores().Users.GetByUsername(ctx, "newkid")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, kid.Role)
	assert.Equal(t, &b.manager.ID, kid.ManagedByID)
	assert.Equal(t, &grade.ID, kid.ClassInChargeID)
	assert.Equal(t, &b.bus.ID, kid.BusID)
	require.NotNil(t, kid.ParentID)
	assert.True(t, pkgauth.CheckPassword(kid.Password, resp.MemberPassword))

	parent, err := f.db.stores().Users.GetByID(ctx, *kid.ParentID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleParent, parent.Role)

	sent := f.mailer.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Account Created", sent[0].Subject)
	assert.Equal(t, "Parent & Student Account Created", sent[1].Subject)
	assert.Equal(t, []string{"newparent@school.test"}, sent[1].To)
	assert.Contains(t, sent[1].Text, resp.ParentPassword)
}

func TestRegisterMemberValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()

	_, err := f.svc.Management.RegisterMember(ctx, b.manager.ID, &dto.RegisterMemberRequest{Role: "student", Username: "kid", Email: "kid@school.test"})
	assert.Equal(t, MsgParentDetailsRequired, apperrors.Message(err, ""))

	_, err = f.svc.Management.RegisterMember(ctx, b.manager.ID, &dto.RegisterMemberRequest{Role: "pilot", Username: "kid", Email: "kid@school.test"})
	assert.Equal(t, MsgInvalidRole, apperrors.Message(err, ""))

	_, err = f.svc.Management.RegisterMember(ctx, b.manager.ID, &dto.RegisterMemberRequest{Role: "teacher", Email: "kid@school.test"})
	assert.Equal(t, MsgMissingFields, apperrors.Message(err, ""))

	_, err = f.svc.Management.RegisterMember(ctx, b.manager.ID, &dto.RegisterMemberRequest{Role: "teacher", Username: "driver", Email: "x@school.test"})
	assert.ErrorIs(t, err, apperrors.ErrUsernameAlreadyExists)

	_, err = f.svc.Management.RegisterMember(ctx, b.manager.ID, &dto.RegisterMemberRequest{
		Role: "student", Username: "kid", Email: "kid@school.test",
		ParentDetails: &dto.ParentDetails{Name: "parent", Email: "p@school.test"},
	})
	assert.ErrorIs(t, err, apperrors.ErrUsernameAlreadyExists)
	exists, err := f.db.stores().Users.UsernameExists(ctx, "kid")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.svc.Management.RegisterMember(ctx, b.driver.ID, &dto.RegisterMemberRequest{Role: "teacher", Username: "t", Email: "t@school.test"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestRegisterDriverIgnoresClassAndUnknownBus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()
	grade := f.db.addGrade("9", "B")

	_, err := f.svc.Management.RegisterMember(ctx, b.manager.ID, &dto.RegisterMemberRequest{
		Role: "driver", Username: "newdriver", Email: "nd@school.test",
		ClassInChargeID: &grade.ID, BusID: ptr(int64(9999)),
	})
	require.NoError(t, err)

	d, err := f.db.stores().Users.GetByUsername(ctx, "newdriver")
	require.NoError(t, err)
	assert.Nil(t, d.ClassInChargeID)
	assert.Nil(t, d.BusID)
}

func TestDeleteAndBlockRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()
	rival := f.db.addUser(models.User{Username: "rival", Role: models.RoleManagement})

	err := f.svc.Management.DeleteUser(ctx, b.manager.ID, b.manager.ID)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.Equal(t, MsgCannotDeleteSelf, apperrors.Message(err, ""))

	_, err = f.svc.Management.ToggleBlock(ctx, b.manager.ID, b.manager.ID)
	assert.Equal(t, MsgCannotBlockSelf, apperrors.Message(err, ""))

	err = f.svc.Management.DeleteUser(ctx, rival.ID, b.student.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	resp, err := f.svc.Management.ToggleBlock(ctx, b.manager.ID, b.student.ID)
	require.NoError(t, err)
	assert.Equal(t, &dto.ToggleBlockResponse{Message: "User blocked successfully", IsActive: false}, resp)

	resp, err = f.svc.Management.ToggleBlock(ctx, b.manager.ID, b.student.ID)
	require.NoError(t, err)
	assert.Equal(t, "User unblocked successfully", resp.Message)
	assert.True(t, resp.IsActive)

	require.NoError(t, f.svc.Management.DeleteUser(ctx, b.manager.ID, b.student.ID))
	_, err = f.db.stores().Users.GetByID(ctx, b.student.ID)
	assert.Error(t, err)
}

func TestManagementStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()
	pending := f.db.addUser(models.User{Username: "pending", Role: models.RoleManagement})
	f.db.mu.Lock()
	f.db.users[pending.ID].IsActive = false
	f.db.mu.Unlock()
	root := f.db.addUser(models.User{Username: "root", Role: models.RoleSuperuser})
	require.NoError(t, f.svc.Complaints.Create(ctx, b.parent.ID, &dto.CreateComplaintRequest{Title: "t", Description: "d"}))

	mine, err := f.svc.Management.Stats(ctx, b.manager.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, mine.TotalUsers)
	assert.Equal(t, 3, mine.ActiveUsers)
	assert.Equal(t, 1, mine.TotalBuses)
	assert.Equal(t, 1, mine.OpenComplaints)
	assert.Equal(t, 3*RevenuePerUser, mine.Revenue)
	assert.Empty(t, mine.ManagementBreakdown)

	global, err := f.svc.Management.Stats(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, global.TotalUsers)
	assert.Equal(t, 2, global.ManagementUsers)
	assert.Equal(t, 1, global.VerifiedInstitutions)
	assert.Equal(t, 1, global.PendingInstitutions)
	assert.Equal(t, 5, global.ActiveUsers)
	require.Len(t, global.ManagementBreakdown, 1)
	assert.Equal(t, dto.ManagementBreakdownEntry{ID: b.manager.ID, Username: "manager", Email: "manager@school.test", ActiveUsers: 3}, global.ManagementBreakdown[0])
}

func TestBusOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()
	rival := f.db.addUser(models.User{Username: "rival", Role: models.RoleManagement})

	_, err := f.svc.Management.CreateBus(ctx, rival.ID, &dto.BusRequest{BusNumber: ptr(" ")}, nil)
	assert.Equal(t, MsgBusNumberRequired, apperrors.Message(err, ""))

	created, err := f.svc.Management.CreateBus(ctx, rival.ID, &dto.BusRequest{BusNumber: ptr("BUS-7"), NumberPlate: ptr("KA-02-7777")}, nil)
	require.NoError(t, err)
	assert.Equal(t, &rival.ID, created.Management)
	assert.Equal(t, models.DefaultEveningTripStart, created.EveningTripStartTime)

	_, err = f.svc.Management.UpdateBus(ctx, b.manager.ID, created.ID, &dto.BusRequest{Destination: ptr("x")}, nil)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	assert.Equal(t, MsgBusNotFoundOrDenied, apperrors.Message(err, ""))

	evening := models.NewTimeOfDay(13, 30, 0)
	updated, err := f.svc.Management.UpdateBus(ctx, rival.ID, created.ID, &dto.BusRequest{Destination: ptr("West Gate"), EveningTripStartTime: &evening}, nil)
	require.NoError(t, err)
	assert.Equal(t, "West Gate", *updated.Destination)
	assert.Equal(t, evening, updated.EveningTripStartTime)
	assert.Equal(t, "BUS-7", updated.BusNumber)

	mine, err := f.svc.Management.ListBuses(ctx, rival.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	theirs, err := f.svc.Management.ListBuses(ctx, b.student.ID)
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, b.bus.ID, theirs[0].ID)

	err = f.svc.Management.DeleteBus(ctx, b.manager.ID, 9999)
	assert.Equal(t, MsgBusNotFoundOrDenied, apperrors.Message(err, ""))
	require.NoError(t, f.svc.Management.DeleteBus(ctx, rival.ID, created.ID))
}

func TestUpdateMemberLinks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, monday)
	b := f.seedBus()
	grade := f.db.addGrade("10", "A")

	err := f.svc.Management.UpdateMember(ctx, b.manager.ID, b.student.ID, &dto.UpdateMemberRequest{
		Phone:           ptr("+15550101"),
		ClassInChargeID: dto.OptionalID{Set: true, Value: &grade.ID},
		BusID:           dto.OptionalID{Set: true},
		ParentDetails:   &dto.UpdateParentDetails{Email: ptr("mum@school.test")},
	})
	require.NoError(t, err)

	kid, err := f.db.stores().Users.GetByID(ctx, b.student.ID)
	require.NoError(t, err)
	assert.Equal(t, "+15550101", *kid.Phone)
	assert.Equal(t, &grade.ID, kid.ClassInChargeID)
	assert.Nil(t, kid.BusID)

	parent, err := f.db.stores().Users.GetByID(ctx, b.parent.ID)
	require.NoError(t, err)
	assert.Equal(t, "mum@school.test", parent.Email)

	// absent fields and unknown ids leave links unchanged
	err = f.svc.Management.UpdateMember(ctx, b.manager.ID, b.driver.ID, &dto.UpdateMemberRequest{BusID: dto.OptionalID{Set: true, Value: ptr(int64(9999))}})
	require.NoError(t, err)
	driver, err := f.db.stores().Users.GetByID(ctx, b.driver.ID)
	require.NoError(t, err)
	assert.Equal(t, &b.bus.ID, driver.BusID)

	rival := f.db.addUser(models.User{Username: "rival", Role: models.RoleManagement})
	err = f.svc.Management.UpdateMember(ctx, rival.ID, b.student.ID, &dto.UpdateMemberRequest{Phone: ptr("1")})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestGrades(t *testing.T) {
	f := newFixture(t, monday)
	f.db.addGrade("10", "B")
	f.db.addGrade("10", "A")

	grades, err := f.svc.Management.Grades(context.Background())
	require.NoError(t, err)
	require.Len(t, grades, 2)
	assert.Equal(t, "10 - A", grades[0].Name)
}
