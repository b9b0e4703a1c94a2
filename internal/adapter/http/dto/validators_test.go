package dto

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RegisterRequest{
		Username: "  alice  ",
		Password: "  pass1234  ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "pass1234", req.Password)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := ListItemRequest{
		Name:        "voucher",
		Description: "get one <script>alert('x')</script> free",
		Price:       100,
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Description, "&lt;script&gt;")
	assert.NotContains(t, req.Description, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	url := "  https://example.com/webhook  "
	req := RegisterMerchantRequest{
		Name:       "Bob Shop",
		WebhookURL: &url,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "https://example.com/webhook", *req.WebhookURL)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := RegisterMerchantRequest{Name: "Bob Shop"}
	SanitizeStruct(&req)

	assert.Nil(t, req.WebhookURL)
	assert.Equal(t, "Bob Shop", req.Name)
}

func TestSanitizeStruct_NonStructIsNoOp(t *testing.T) {
	s := "  untouched  "
	SanitizeStruct(&s)

	assert.Equal(t, "  untouched  ", s)
}

// --- custom validator tests ---

func TestValidateSafeURL(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("safe_url", validateSafeURL))

	type form struct {
		URL string `validate:"safe_url"`
	}

	cases := []struct {
		url   string
		valid bool
	}{
		{"https://example.com/webhook", true},
		{"http://localhost:8080/hook", true},
		{"", true}, // optional
		{"ftp://example.com", false},
		{"javascript:alert(1)", false},
		{"not a url", false},
	}

	for _, tc := range cases {
		err := v.Struct(form{URL: tc.url})
		if tc.valid {
			assert.NoError(t, err, "url: %q", tc.url)
		} else {
			assert.Error(t, err, "url: %q", tc.url)
		}
	}
}

func TestValidateSafeID(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("safe_id", validateSafeID))

	type form struct {
		ID string `validate:"safe_id"`
	}

	assert.NoError(t, v.Struct(form{ID: "alice_01.test-x"}))
	assert.Error(t, v.Struct(form{ID: "alice bob"}))
	assert.Error(t, v.Struct(form{ID: "alice<script>"}))
}
