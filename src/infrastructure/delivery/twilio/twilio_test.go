package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"emrs-notify-api/src/domain/provider"
	logger "emrs-notify-api/src/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCredentials() Credentials {
	return Credentials{AccountSID: "AC123", AuthToken: "token", FromNumber: "+15005550006"}
}

func TestProvider_DeliverPostsForm(t *testing.T) {
	var gotPath, gotUser, gotPass, gotTo, gotFrom, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		assert.NoError(t, r.ParseForm())
		gotTo = r.PostForm.Get("To")
		gotFrom = r.PostForm.Get("From")
		gotBody = r.PostForm.Get("Body")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer server.Close()

	p := NewProvider(validCredentials(), logger.NewNopLogger(), WithBaseURL(server.URL))
	session, err := p.Open(context.Background())
	require.NoError(t, err)
	defer session.Close()

	err = session.Deliver(context.Background(), "+919999999999", provider.Message{Text: "School closed tomorrow"})
	require.NoError(t, err)

	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "token", gotPass)
	assert.Equal(t, "+919999999999", gotTo)
	assert.Equal(t, "+15005550006", gotFrom)
	assert.Equal(t, "School closed tomorrow", gotBody)
}

func TestProvider_DeliverReturnsTwilioMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number.","status":400}`))
	}))
	defer server.Close()

	p := NewProvider(validCredentials(), logger.NewNopLogger(), WithBaseURL(server.URL))
	session, err := p.Open(context.Background())
	require.NoError(t, err)

	err = session.Deliver(context.Background(), "12", provider.Message{Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, "twilio error 21211: The 'To' number is not a valid phone number.", err.Error())
}

func TestProvider_DeliverNonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewProvider(validCredentials(), logger.NewNopLogger(), WithBaseURL(server.URL+"/"))
	session, err := p.Open(context.Background())
	require.NoError(t, err)

	err = session.Deliver(context.Background(), "+919999999999", provider.Message{Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, "twilio http 502: Bad Gateway", err.Error())
}

func TestProvider_OpenRequiresCredentials(t *testing.T) {
	for _, c := range []Credentials{
		{AuthToken: "t", FromNumber: "+1"},
		{AccountSID: "AC1", FromNumber: "+1"},
		{AccountSID: "AC1", AuthToken: "t", FromNumber: "  "},
	} {
		_, err := NewProvider(c, logger.NewNopLogger()).Open(context.Background())
		assert.ErrorIs(t, err, provider.ErrMissingCredentials)
	}
}
