package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryValidate(t *testing.T) {
	c := Category{Name: "  Glassware ", Image: "/uploads/a.png", Caption: "Beakers and flasks"}
	c.Normalize()
	assert.Equal(t, "Glassware", c.Name)
	require.NoError(t, c.Validate())

	c.Name = strings.Repeat("x", CategoryNameMax+1)
	err := c.Validate()
	require.Error(t, err)
	assert.Equal(t, "Name cannot be more than 60 characters", err.Error())

	c.Name = "Glassware"
	c.Caption = ""
	assert.EqualError(t, c.Validate(), "Please provide a caption")

	c.Caption = "ok"
	c.Image = ""
	var verr *ValidationError
	require.ErrorAs(t, c.Validate(), &verr)
	assert.Equal(t, "image", verr.Field)
}

func TestProductValidateAndMedia(t *testing.T) {
	p := Product{Name: "Vortex Mixer", CategoryID: 7, Description: "Mixes", MainImage: "m.png"}
	p.Normalize()
	require.NoError(t, p.Validate())
	assert.NotNil(t, p.Images)
	assert.NotNil(t, p.TableRows)

	p.CategoryID = 0
	assert.EqualError(t, p.Validate(), "Please select a category")

	p.CategoryID = 7
	p.Description = strings.Repeat("d", ProductDescriptionMax+1)
	assert.EqualError(t, p.Validate(), "Description cannot be more than 1000 characters")

	p.Images = []string{"a.png", "", "b.png"}
	assert.Equal(t, []string{"m.png", "a.png", "b.png"}, p.MediaURLs())
}

func TestProductRemoveImages(t *testing.T) {
	p := Product{Images: []string{"a", "b", "c"}}
	removed := p.RemoveImages([]string{"b", "zzz"})
	assert.Equal(t, []string{"b"}, removed)
	assert.Equal(t, []string{"a", "c"}, p.Images)

	assert.Nil(t, p.RemoveImages(nil))
	p.RemoveImages([]string{"a", "c"})
	assert.NotNil(t, p.Images)
	assert.Empty(t, p.Images)
}

func TestHeroValidate(t *testing.T) {
	h := Hero{Headline: "  Precision Instruments ", MediaUrl: "v.mp4"}
	h.Normalize()
	assert.Equal(t, MediaTypeImage, h.MediaType)
	assert.Equal(t, "Precision Instruments", h.Headline)
	require.NoError(t, h.Validate())

	h.Tag = strings.Repeat("t", HeroTagMax+1)
	assert.EqualError(t, h.Validate(), "Tag cannot be more than 50 characters")

	h.Tag = ""
	h.MediaType = "gif"
	assert.Error(t, h.Validate())

	h.MediaType = MediaTypeVideo
	h.Headline = ""
	assert.EqualError(t, h.Validate(), "Please provide a headline")
}

func TestMediaTypeFor(t *testing.T) {
	assert.Equal(t, MediaTypeVideo, MediaTypeFor("video/mp4"))
	assert.Equal(t, MediaTypeVideo, MediaTypeFor(" Video/WebM"))
	assert.Equal(t, MediaTypeImage, MediaTypeFor("image/png"))
	assert.Equal(t, MediaTypeImage, MediaTypeFor(""))
}

func TestReviewValidate(t *testing.T) {
	r := Review{ProductID: 1, Name: "Asha", Rating: 5, Content: "Accurate and sturdy"}
	require.NoError(t, r.Validate())

	for _, rating := range []int{0, 6, -1} {
		r.Rating = rating
		assert.EqualError(t, r.Validate(), "Rating must be between 1 and 5")
	}
	r.Rating = 1
	r.Content = strings.Repeat("c", ReviewContentMax+1)
	assert.Error(t, r.Validate())
}

func TestInquiry(t *testing.T) {
	var q Inquiry
	assert.True(t, q.Add(InquiryItem{ID: 1, Name: "Beaker"}))
	assert.True(t, q.Add(InquiryItem{ID: 2, Name: "Flask"}))
	assert.False(t, q.Add(InquiryItem{ID: 1, Name: "Beaker again"}))
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, "Beaker", q.Items[0].Name)

	q.Remove(1)
	assert.False(t, q.Contains(1))
	assert.True(t, q.Contains(2))
	q.Remove(42)
	assert.Equal(t, 1, q.Len())
}

func TestUserNormalize(t *testing.T) {
	u := User{Name: " Ravi ", Email: " Ravi@Example.COM "}
	u.Normalize()
	assert.Equal(t, "Ravi", u.Name)
	assert.Equal(t, "ravi@example.com", u.Email)
}
