package wizard

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivePortal/internal/apperr"
	"archivePortal/internal/models"
)

var now = time.Date(2025, 11, 23, 10, 0, 0, 0, time.UTC)

func photo() models.Attachment {
	return models.Attachment{Name: "photo.jpg", MimeType: "image/jpeg", Size: 102400}
}

func TestStepNavigation(t *testing.T) {
	w := New()
	assert.Equal(t, StepMedia, w.Step())
	assert.Equal(t, "Media Upload", w.Step().Name())

	w.PrevStep()
	assert.Equal(t, StepMedia, w.Step())

	w.NextStep()
	w.NextStep()
	assert.Equal(t, StepContext, w.Step())

	w.GoToStep(5)
	assert.Equal(t, StepReview, w.Step())
	w.NextStep()
	assert.Equal(t, StepReview, w.Step())

	w.GoToStep(2)
	assert.Equal(t, StepBasicInfo, w.Step())

	w.GoToStep(42)
	assert.Equal(t, LastStep, w.Step())
	w.GoToStep(-1)
	assert.Equal(t, FirstStep, w.Step())
}

func TestAddTag(t *testing.T) {
	w := New()
	w.AddTag("Victorian")
	w.AddTag("Victorian")
	w.AddTag("")
	w.AddTag("   ")
	w.AddTag(" London ")

	assert.Equal(t, []string{"Victorian", "London"}, w.Draft().Tags)

	w.RemoveTag("victorian")
	assert.Len(t, w.Draft().Tags, 2)
	w.RemoveTag("Victorian")
	assert.Equal(t, []string{"London"}, w.Draft().Tags)
}

func TestAddFile(t *testing.T) {
	w := New()
	require.NoError(t, w.AddFile(photo()))

	d := w.Draft()
	require.Len(t, d.Files, 1)
	assert.Equal(t, models.MediaImage, d.Files[0].Kind)

	for i := 1; i < 10; i++ {
		require.NoError(t, w.AddFile(models.Attachment{Name: fmt.Sprintf("clip%d.mp4", i), MimeType: "video/mp4", Size: 4096}))
	}

	err := w.AddFile(photo())
	assert.ErrorIs(t, err, ErrTooManyFiles)
	assert.True(t, apperr.IsValidation(err))
	assert.Len(t, w.Draft().Files, 10)

	var v *apperr.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields["attachments"], "10 files")

	w.RemoveFile(0)
	w.RemoveFile(99)
	w.RemoveFile(-1)
	files := w.Draft().Files
	require.Len(t, files, 9)
	assert.Equal(t, "clip1.mp4", files[0].Name)
}

func TestDraftIsACopy(t *testing.T) {
	w := New()
	w.AddTag("Victorian")
	d := w.Draft()
	d.Tags[0] = "changed"
	assert.Equal(t, "Victorian", w.Draft().Tags[0])
}

func TestSubmit(t *testing.T) {
	t.Run("zero attachments", func(t *testing.T) {
		w := New()
		w.SetBasicInfo("Test", "A test item", models.CategoryPhotography)
		w.SetAgreeToTerms(true)

		sub, err := w.Submit("u1", now)
		assert.Nil(t, sub)
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("complete draft", func(t *testing.T) {
		w := New()
		require.NoError(t, w.AddFile(photo()))
		w.SetBasicInfo("Test", "A test item", models.CategoryPhotography)
		w.AddTag("Victorian")
		w.SetAgreeToTerms(true)

		sub, err := w.Submit("u1", now)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, sub.Status)
		assert.Equal(t, "u1", sub.OwnerID)
		assert.NotEmpty(t, sub.SubmissionID)
		assert.Equal(t, models.PrivacyPublic, sub.PrivacyLevel)
		require.Len(t, sub.Attachments, 1)
		assert.Equal(t, sub.SubmissionID, sub.Attachments[0].SubmissionID)
		assert.NotEmpty(t, sub.Attachments[0].AttachmentID)
		assert.Equal(t, []string{"Victorian"}, []string(sub.Tags))
	})

	t.Run("terms not accepted", func(t *testing.T) {
		w := New()
		require.NoError(t, w.AddFile(photo()))
		w.SetBasicInfo("Test", "A test item", models.CategoryPhotography)

		_, err := w.Submit("u1", now)
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("owner required", func(t *testing.T) {
		_, err := New().Submit("", now)
		assert.Error(t, err)
	})
}

func TestFromDraft(t *testing.T) {
	d := Draft{
		Title:            "Test",
		ShortDescription: "A test item",
		Category:         models.CategoryDocument,
		Tags:             []string{"a", "a", "", "b"},
		PrivacyLevel:     models.PrivacyRestricted,
		Files:            []models.Attachment{photo()},
		AgreeToTerms:     true,
	}

	w, err := FromDraft(d)
	require.NoError(t, err)
	assert.Equal(t, StepReview, w.Step())
	assert.Equal(t, []string{"a", "b"}, w.Draft().Tags)
	assert.Equal(t, models.PrivacyRestricted, w.Draft().PrivacyLevel)

	t.Run("too many files", func(t *testing.T) {
		tooMany := d
		tooMany.Files = nil
		for i := 0; i < 11; i++ {
			tooMany.Files = append(tooMany.Files, photo())
		}
		_, err := FromDraft(tooMany)
		assert.ErrorIs(t, err, ErrTooManyFiles)
	})
}

func TestAddFile_KindFollowsMIME(t *testing.T) {
	w := New()
	require.NoError(t, w.AddFile(models.Attachment{Name: "scan.pdf", Kind: "banana", MimeType: "application/pdf", Size: 10}))
	require.NoError(t, w.AddFile(models.Attachment{Name: "tape.mp3", Kind: models.MediaImage, MimeType: "audio/mpeg", Size: 10}))

	files := w.Draft().Files
	assert.Equal(t, models.MediaOther, files[0].Kind)
	assert.Equal(t, models.MediaAudio, files[1].Kind)
}

func TestAddFile_RejectsEmptySize(t *testing.T) {
	w := New()
	for _, size := range []int64{0, -5} {
		err := w.AddFile(models.Attachment{Name: "blank.jpg", MimeType: "image/jpeg", Size: size})
		assert.True(t, apperr.IsValidation(err))
		assert.NotErrorIs(t, err, ErrTooManyFiles)
	}
	assert.Empty(t, w.Draft().Files)
}

func TestTooManyFilesErrorsAreIndependent(t *testing.T) {
	first := tooManyFiles()
	var v *apperr.ValidationError
	require.ErrorAs(t, first, &v)
	v.Add("title", "changed by a caller")

	second := tooManyFiles()
	require.ErrorAs(t, second, &v)
	assert.NotContains(t, v.Fields, "title")
}
