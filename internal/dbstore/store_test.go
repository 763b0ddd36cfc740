package dbstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixellobby/arcade/pkg/protocol"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "db.json"), nil)
	require.NoError(t, err)
	return s
}

func TestRegisterLoginRegisterYieldsAccountExists(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.RegisterDev("alice", "p"))
	require.NoError(t, s.AuthDev("alice", "p"))

	err := s.RegisterDev("alice", "p")
	require.Error(t, err)
	assert.Equal(t, protocol.ReasonAccountExists, ReasonOf(err))
}

func TestAuthDevWrongPassword(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.RegisterDev("alice", "correct"))

	err := s.AuthDev("alice", "wrong")
	require.Error(t, err)
	assert.Equal(t, protocol.ReasonWrongPassword, ReasonOf(err))
}

func TestAuthDevUnknownUser(t *testing.T) {
	s := openTestStore(t)
	err := s.AuthDev("nobody", "x")
	require.Error(t, err)
	assert.Equal(t, protocol.ReasonUserNotFound, ReasonOf(err))
}

func TestUploadTwiceAppendsVersionsPreservesRatings(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Upload(UploadInput{
		GameID: "demo", Author: "alice", Name: "Demo", Type: "CLI",
		MinPlayers: 1, MaxPlayers: 2,
		VersionInfo: &VersionEntry{Version: "1.0", FilePath: "/x/1.0.zip"},
	})
	require.NoError(t, err)

	require.NoError(t, s.RegisterPlayer("bob", "p"))
	_, err = s.SubmitReview("demo", "bob", 4, "ok")
	require.Error(t, err, "expected MUST_PLAY_FIRST before play history recorded")

	require.NoError(t, s.RecordPlay("bob", "demo"))
	_, err = s.SubmitReview("demo", "bob", 4, "ok")
	require.NoError(t, err)

	g2, err := s.Upload(UploadInput{
		GameID: "demo", Author: "alice", Name: "Demo v2", Type: "CLI",
		MinPlayers: 1, MaxPlayers: 2,
		VersionInfo: &VersionEntry{Version: "1.1", FilePath: "/x/1.1.zip"},
	})
	require.NoError(t, err)

	assert.Len(t, g2.Versions, 2)
	assert.Equal(t, "1.1", g2.LatestVersion)
	assert.Equal(t, "Demo v2", g2.Name, "metadata should be overwritten by second upload")
	assert.Equal(t, 1, g2.RatingCount)
	assert.Equal(t, 4, g2.RatingSum)
}

func TestSetActiveFalseThenUploadReenables(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Upload(UploadInput{GameID: "demo", Author: "a", Name: "Demo"})
	require.NoError(t, err)
	require.NoError(t, s.SetActive("demo", false))

	g, err := s.Upload(UploadInput{GameID: "demo", Author: "a", Name: "Demo"})
	require.NoError(t, err)
	assert.True(t, g.IsActive)
}

func TestSubmitReviewResubmissionAdjustsSumNotCount(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Upload(UploadInput{GameID: "demo", Author: "a", Name: "Demo"})
	require.NoError(t, err)
	require.NoError(t, s.RegisterPlayer("carol", "p"))
	require.NoError(t, s.RecordPlay("carol", "demo"))

	_, err = s.SubmitReview("demo", "carol", 5, "good")
	require.NoError(t, err)
	_, err = s.SubmitReview("demo", "carol", 3, "eh")
	require.NoError(t, err)

	g, err := s.GetGame("demo")
	require.NoError(t, err)
	assert.Equal(t, 1, g.RatingCount)
	assert.Equal(t, 3, g.RatingSum)
	assert.InDelta(t, 3.0, g.averageRating(), 1e-9)
}

func TestRatingClampedToRange(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Upload(UploadInput{GameID: "demo", Author: "a", Name: "Demo"})
	require.NoError(t, err)
	require.NoError(t, s.RegisterPlayer("dan", "p"))
	require.NoError(t, s.RecordPlay("dan", "demo"))

	r, err := s.SubmitReview("demo", "dan", 99, "too high")
	require.NoError(t, err)
	assert.Equal(t, 5, r.Rating)
}

func TestDocumentFileNeverPartiallyWritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.RegisterDev("alice", "p"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	s2, err := Open(path, nil)
	require.NoError(t, err)
	assert.NoError(t, s2.AuthDev("alice", "p"))
}

func TestListGamesFiltersInactiveUnlessIncluded(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Upload(UploadInput{GameID: "a", Author: "x", Name: "A"})
	require.NoError(t, err)
	_, err = s.Upload(UploadInput{GameID: "b", Author: "x", Name: "B"})
	require.NoError(t, err)
	require.NoError(t, s.SetActive("b", false))

	active := s.ListGames(false)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].GameID)

	all := s.ListGames(true)
	assert.Len(t, all, 2)
}
