package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registry-api/internal/models"
	appErrors "github.com/noah-isme/sma-registry-api/pkg/errors"
)

func newClassFixture() (*StudentClassService, *mockClassRepo, *mockUserRepo) {
	schools := &mockSchoolRepo{schools: map[string]*models.School{
		"s1": {ID: "s1", Name: "Kings College"},
		"s2": {ID: "s2", Name: "Queens College"},
	}}
	classes := &mockClassRepo{classes: map[string]*models.StudentClass{
		"c1": {ID: "c1", Name: "JSS1 Gold", SchoolID: "s1", SchoolName: "Kings College"},
		"c2": {ID: "c2", Name: "SS2 Blue", SchoolID: "s2", SchoolName: "Queens College"},
	}}
	classID := "c1"
	users := newMockUserRepo(
		models.User{ID: "u1", Username: "ada", StudentClassID: &classID, Gender: models.GenderFemale},
		models.User{ID: "u2", Username: "bayo", Gender: models.GenderMale},
	)
	return NewStudentClassService(classes, schools, users, nil, nil, nil, nil), classes, users
}

func TestStudentClassServiceCreateRequiresKnownSchool(t *testing.T) {
	svc, _, _ := newClassFixture()

	_, err := svc.Create(context.Background(), models.StudentClassRequest{Name: "JSS2", SchoolID: "7d8a9f0e-4b55-4e93-9b9c-0fd1f2a3b4c5"})
	assertCode(t, err, appErrors.ErrValidation.Code)
	assert.Contains(t, err.Error(), "unknown school")

	_, err = svc.Create(context.Background(), models.StudentClassRequest{Name: "JSS2", SchoolID: "not-a-uuid"})
	assertCode(t, err, appErrors.ErrValidation.Code)
}

func TestStudentClassServiceCreateDuplicateName(t *testing.T) {
	schoolID := "8b0c1d2e-3f40-4a5b-8c6d-7e8f9a0b1c2d"
	schools := &mockSchoolRepo{schools: map[string]*models.School{schoolID: {ID: schoolID, Name: "Kings College"}}}
	classes := &mockClassRepo{classes: map[string]*models.StudentClass{"c1": {ID: "c1", Name: "JSS1 Gold", SchoolID: schoolID}}}
	svc := NewStudentClassService(classes, schools, newMockUserRepo(), nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), models.StudentClassRequest{Name: "jss1 gold", SchoolID: schoolID})
	assertCode(t, err, appErrors.ErrConflict.Code)

	class, err := svc.Create(context.Background(), models.StudentClassRequest{Name: " JSS2 ", SchoolID: schoolID})
	require.NoError(t, err)
	assert.Equal(t, "JSS2", class.Name)
	assert.Equal(t, "Kings College", class.SchoolName)
}

func TestStudentClassServiceDeleteReportsDetachedUsers(t *testing.T) {
	svc, classes, _ := newClassFixture()
	classes.deleteResult = &models.StudentClassDeleteResult{ID: "c1", UsersDetached: 1}

	result, err := svc.Delete(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.UsersDetached)

	_, err = svc.Delete(context.Background(), "c1")
	assertCode(t, err, appErrors.ErrNotFound.Code)
}

func TestStudentClassServiceListBySchool(t *testing.T) {
	svc, classes, _ := newClassFixture()

	items, _, err := svc.ListBySchool(context.Background(), "s2", models.NameFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "SS2 Blue", items[0].Name)
	assert.Equal(t, "s2", classes.lastFilter.SchoolID)

	_, _, err = svc.ListBySchool(context.Background(), "missing", models.NameFilter{})
	assertCode(t, err, appErrors.ErrNotFound.Code)
}

func TestStudentClassServiceMembers(t *testing.T) {
	svc, _, _ := newClassFixture()

	class, users, err := svc.Members(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "JSS1 Gold", class.Name)
	require.Len(t, users, 1)
	assert.Equal(t, "ada", users[0].Username)

	_, users, err = svc.Members(context.Background(), "c2")
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}
