package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xdrip/internal/types"
)

func TestParseFollower(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fragments []string
		want      types.FollowerRecord
		wantOK    bool
	}{
		{
			name:      "name with at-sign suffix",
			fragments: []string{"佐藤一郎@エンジニア", "@sato", "フォローされています", "フルスタック", "エンジニア"},
			want: types.FollowerRecord{
				UserID:   "sato",
				Name:     "佐藤一郎@エンジニア",
				Nickname: "佐藤一郎",
				Profile:  "フルスタック エンジニア",
			},
			wantOK: true,
		},
		{
			name:      "full-width pipe separator",
			fragments: []string{"鈴木花子 ｜デザイナー", "@hanako"},
			want: types.FollowerRecord{
				UserID:   "hanako",
				Name:     "鈴木花子 ｜デザイナー",
				Nickname: "鈴木花子",
			},
			wantOK: true,
		},
		{
			name:      "plain name keeps whole nickname",
			fragments: []string{"田中企画", "@tanaka", "フォロー中", "Webサービスの企画"},
			want: types.FollowerRecord{
				UserID:   "tanaka",
				Name:     "田中企画",
				Nickname: "田中企画",
				Profile:  "Webサービスの企画",
			},
			wantOK: true,
		},
		{
			name:      "boilerplate prefix stripped once",
			fragments: []string{"Alice", "@alice", "フォローされています", "フォローバック", "フォローバック", "フォローバック", "hello"},
			want: types.FollowerRecord{
				UserID:   "alice",
				Name:     "Alice",
				Nickname: "Alice",
				Profile:  "フォローバック hello",
			},
			wantOK: true,
		},
		{
			name:      "fragments before the marker are not profile",
			fragments: []string{"Bob", "@bob", "unrelated", "フォロー中", "bio"},
			want: types.FollowerRecord{
				UserID:   "bob",
				Name:     "Bob",
				Nickname: "Bob",
				Profile:  "bio",
			},
			wantOK: true,
		},
		{
			name:      "missing handle",
			fragments: []string{"Carol", "フォロー中", "bio"},
			wantOK:    false,
		},
		{
			name:      "unrelated button",
			fragments: []string{"ポストする"},
			wantOK:    false,
		},
		{
			name:   "no fragments",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseFollower(tt.fragments)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNickname(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "山田太郎", Nickname("山田太郎 @営業部"))
	assert.Equal(t, "a", Nickname("a@b｜c"))
	assert.Equal(t, "山田太郎（営業部）", Nickname("山田太郎（営業部）"))
}

func TestTableResolve(t *testing.T) {
	t.Parallel()

	got, err := Default.Resolve(RoleFollow, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{`[aria-label="フォロー @alice"]`}, got)

	got, err = Default.Resolve(RoleSend, "alice")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	empty := &Table{Version: "empty", Selectors: map[Role][]string{}}
	_, err = empty.Resolve(RoleMessage, "")
	assert.Error(t, err)
}
