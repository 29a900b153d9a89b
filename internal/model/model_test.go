package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplicationStatusValid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, ApplicationStatus("archived").Valid())
	assert.False(t, ApplicationStatus("Not Viewed").Valid())
	assert.False(t, ApplicationStatus("").Valid())
}

func TestReferenceTypeValid(t *testing.T) {
	assert.True(t, ReferenceOther.Valid())
	for _, rt := range RequiredReferenceTypes {
		assert.True(t, rt.Valid(), rt)
	}
	assert.False(t, ReferenceType("family").Valid())
}

func TestUserUpdateEmpty(t *testing.T) {
	assert.True(t, UserUpdate{}.Empty())
	active := false
	assert.False(t, UserUpdate{Active: &active}.Empty())
}
