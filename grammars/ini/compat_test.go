package ini

import (
	"testing"

	goini "github.com/go-ini/ini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// files that both loaders should read the same way
var compatInputs = map[string]string{
	"aws profiles": `[profile default]
region = us-east-1
sso_account_id = 123456789012

[profile dev]
region = eu-west-1   ; closest one
sso_role_name = "Developer Access"
`,
	"global keys": `# no section yet
name = demo
version = 1.0

[server]
host = "0.0.0.0"
port = 8080
`,
}

func TestLoadMatchesGoIni(t *testing.T) {
	for name, input := range compatInputs {
		t.Run(name, func(t *testing.T) {
			ours, err := LoadString(input)
			require.NoError(t, err)
			theirs, err := goini.Load([]byte(input))
			require.NoError(t, err)

			for _, s := range ours.Sections {
				sectionName := s.Name
				if sectionName == "" {
					sectionName = goini.DefaultSection
				}
				section, err := theirs.GetSection(sectionName)
				require.NoError(t, err)
				assert.Len(t, section.Keys(), len(s.Entries), "section %q", sectionName)

				for _, e := range s.Entries {
					key, err := section.GetKey(e.Key)
					require.NoError(t, err)
					assert.Equal(t, key.String(), e.Value, "%s.%s", sectionName, e.Key)
				}
			}
		})
	}
}
