package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// ReviewStatus is the canonical status shared by applications and certificates.
// It is always stored lowercase.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// ParseReviewStatus normalises a status coming from a client.
// "Approved", "APPROVED" and the company-side "accepted" all map to approved.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return ReviewStatusPending, nil
	case "approved", "accepted":
		return ReviewStatusApproved, nil
	case "rejected":
		return ReviewStatusRejected, nil
	}
	return "", fmt.Errorf("unknown review status %q", s)
}

func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

func (s ReviewStatus) String() string { return string(s) }

// Value refuses to persist anything outside the enum
func (s ReviewStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid review status %q", string(s))
	}
	return string(s), nil
}

// Scan normalises legacy rows written with mixed casing
func (s *ReviewStatus) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*s = ReviewStatusPending
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ReviewStatus", value)
	}
	parsed, err := ParseReviewStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Role identifies which of the four portals a user belongs to
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleCollege Role = "college"
	RoleCompany Role = "company"
)

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleStudent, RoleFaculty, RoleCollege, RoleCompany:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
