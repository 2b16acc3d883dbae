package naming

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcnkl/libpack/models"
)

func TestNewTemplater(t *testing.T) {
	tests := []struct {
		name        string
		template    string
		expected    string
		expectError bool
	}{
		{
			name:     "empty uses default",
			template: "",
			expected: DefaultTemplate,
		},
		{
			name:     "custom template",
			template: "{name}.{format}.min.js",
			expected: "{name}.{format}.min.js",
		},
		{
			name:     "nested directory",
			template: "{format}/{name}.js",
			expected: "{format}/{name}.js",
		},
		{
			name:        "unknown placeholder",
			template:    "{name}.{hash}.js",
			expectError: true,
		},
		{
			name:        "unbalanced open brace",
			template:    "{name.js",
			expectError: true,
		},
		{
			name:        "unbalanced close brace",
			template:    "name}.js",
			expectError: true,
		},
		{
			name:        "absolute path",
			template:    "/tmp/{name}.js",
			expectError: true,
		},
		{
			name:        "parent directory",
			template:    "../{name}.{format}.js",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			templater, err := NewTemplater(tt.template)
			if tt.expectError {
				require.Error(t, err)
				var invalid *InvalidTemplateError
				assert.ErrorAs(t, err, &invalid)
				assert.Equal(t, models.KindInvalidSpec, invalid.Kind())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, templater.Template())
		})
	}
}

func TestTemplater_Render(t *testing.T) {
	tests := []struct {
		name     string
		template string
		libName  string
		format   models.FormatID
		expected string
	}{
		{
			name:     "default esm",
			libName:  "vuejs-image-zoom",
			format:   models.FormatESM,
			expected: "vuejs-image-zoom.esm.js",
		},
		{
			name:     "default umd",
			libName:  "vuejs-image-zoom",
			format:   models.FormatUMD,
			expected: "vuejs-image-zoom.umd.js",
		},
		{
			name:     "format directory",
			template: "{format}/index.js",
			libName:  "zoom",
			format:   models.FormatCJS,
			expected: "cjs/index.js",
		},
		{
			name:     "repeated placeholder",
			template: "{name}-{name}.{format}.js",
			libName:  "z",
			format:   models.FormatIIFE,
			expected: "z-z.iife.js",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			templater, err := NewTemplater(tt.template)
			require.NoError(t, err)

			first := templater.Render(tt.libName, tt.format)
			second := templater.Render(tt.libName, tt.format)
			assert.Equal(t, tt.expected, first)
			assert.Equal(t, first, second)
		})
	}
}

func TestTemplater_RenderAll(t *testing.T) {
	tests := []struct {
		name           string
		template       string
		libName        string
		formats        []models.FormatID
		expected       []string
		expectedErrors int
		collisions     int
	}{
		{
			name:     "distinct names",
			libName:  "vuejs-image-zoom",
			formats:  []models.FormatID{models.FormatESM, models.FormatUMD},
			expected: []string{"vuejs-image-zoom.esm.js", "vuejs-image-zoom.umd.js"},
		},
		{
			name:           "template without format collides",
			template:       "{name}.js",
			libName:        "zoom",
			formats:        []models.FormatID{models.FormatESM, models.FormatCJS, models.FormatUMD},
			expected:       []string{"zoom.js", "zoom.js", "zoom.js"},
			expectedErrors: 2,
			collisions:     2,
		},
		{
			name:           "case insensitive collision",
			libName:        "zoom",
			formats:        []models.FormatID{"esm", "ESM"},
			expected:       []string{"zoom.esm.js", "zoom.ESM.js"},
			expectedErrors: 1,
			collisions:     1,
		},
		{
			name:           "name escaping output directory",
			libName:        "../zoom",
			formats:        []models.FormatID{models.FormatESM},
			expected:       []string{"../zoom.esm.js"},
			expectedErrors: 1,
		},
		{
			name:     "no formats",
			libName:  "zoom",
			formats:  nil,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			templater, err := NewTemplater(tt.template)
			require.NoError(t, err)

			names, errs := templater.RenderAll(tt.libName, tt.formats)
			assert.Equal(t, tt.expected, names)
			assert.Len(t, errs, tt.expectedErrors)

			collisions := 0
			for _, err := range errs {
				var collision *FileNameCollisionError
				if assert.Error(t, err) && errors.As(err, &collision) {
					collisions++
					assert.Equal(t, models.KindFileNameCollision, collision.Kind())
				}
			}
			assert.Equal(t, tt.collisions, collisions)
		})
	}
}

func TestClaims_Claim(t *testing.T) {
	claims := NewClaims()

	require.NoError(t, claims.Claim("zoom.esm.js", models.FormatESM))
	require.NoError(t, claims.Claim("zoom.esm.js", models.FormatESM), "same owner may claim again")
	require.NoError(t, claims.Claim("zoom.umd.js", models.FormatUMD))

	err := claims.Claim("./zoom.esm.js", models.FormatCJS)
	require.Error(t, err)

	var collision *FileNameCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, models.FormatCJS, collision.Format)
	assert.Equal(t, models.FormatESM, collision.Existing)
	assert.Contains(t, collision.Error(), "zoom.esm.js")
}
