package models

import "strings"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusNeedsInfo Status = "needs-info"
)

// Statuses lists every lifecycle state in lifecycle order.
var Statuses = []Status{StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusNeedsInfo}

func (s Status) Valid() bool {
	_, ok := statusDisplay[s]
	return ok
}

// Display metadata for badges in the dashboard and the admin console.
type Display struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

var statusDisplay = map[Status]Display{
	StatusDraft:     {Label: "Draft", Color: "gray"},
	StatusPending:   {Label: "Pending Review", Color: "yellow"},
	StatusApproved:  {Label: "Approved", Color: "green"},
	StatusRejected:  {Label: "Rejected", Color: "red"},
	StatusNeedsInfo: {Label: "Needs Info", Color: "blue"},
}

func (s Status) Display() Display {
	if d, ok := statusDisplay[s]; ok {
		return d
	}
	return Display{Label: string(s), Color: "gray"}
}

type Category string

const (
	CategoryPhotography Category = "Photography"
	CategoryDocument    Category = "Document"
	CategoryArtifact    Category = "Artifact"
	CategorySculpture   Category = "Sculpture"
	CategoryMap         Category = "Map"
	CategoryAudio       Category = "Audio"
	CategoryVideo       Category = "Video"
	CategoryManuscript  Category = "Manuscript"
	CategoryOther       Category = "Other"
)

var Categories = []Category{
	CategoryPhotography, CategoryDocument, CategoryArtifact, CategorySculpture, CategoryMap,
	CategoryAudio, CategoryVideo, CategoryManuscript, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type PrivacyLevel string

const (
	PrivacyPublic     PrivacyLevel = "public"
	PrivacyRestricted PrivacyLevel = "restricted"
	PrivacyPrivate    PrivacyLevel = "private"
)

func (p PrivacyLevel) Valid() bool {
	return p == PrivacyPublic || p == PrivacyRestricted || p == PrivacyPrivate
}

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
	MediaOther MediaKind = "other"
)

// KindFromMIME infers the media kind from the MIME type prefix.
func KindFromMIME(mimeType string) MediaKind {
	prefix, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), "/")
	switch prefix {
	case "image":
		return MediaImage
	case "video":
		return MediaVideo
	case "audio":
		return MediaAudio
	default:
		return MediaOther
	}
}

type Role string

const (
	RoleVisitor     Role = "visitor"
	RoleContributor Role = "contributor"
	RoleAdmin       Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleVisitor || r == RoleContributor || r == RoleAdmin
}

type VerificationStatus string

const (
	VerificationNotSubmitted VerificationStatus = "not-submitted"
	VerificationUnderReview  VerificationStatus = "under-review"
	VerificationVerified     VerificationStatus = "verified"
	VerificationRejected     VerificationStatus = "rejected"
)

var verificationDisplay = map[VerificationStatus]Display{
	VerificationNotSubmitted: {Label: "Not Submitted", Color: "gray"},
	VerificationUnderReview:  {Label: "Under Review", Color: "yellow"},
	VerificationVerified:     {Label: "Verified", Color: "green"},
	VerificationRejected:     {Label: "Rejected", Color: "red"},
}

func (v VerificationStatus) Valid() bool {
	_, ok := verificationDisplay[v]
	return ok
}

func (v VerificationStatus) Display() Display {
	if d, ok := verificationDisplay[v]; ok {
		return d
	}
	return Display{Label: string(v), Color: "gray"}
}
