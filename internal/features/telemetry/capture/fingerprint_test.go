package telemetry_capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_FirstComponentFrame_ReturnsFirstNonEmptyLine(t *testing.T) {
	stack := "\n   at BlogPost (/blog/:slug)\n  at Layout\n"

	assert.Equal(t, "BlogPost (/blog/:slug)", FirstComponentFrame(stack))
	assert.Equal(t, "", FirstComponentFrame("  \n "))
}

func Test_BuildFingerprint_WithoutFrame_KeepsOnlyClassifier(t *testing.T) {
	assert.Equal(t, []string{"panic"}, buildFingerprint("panic", ""))
	assert.Equal(t, []string{"panic", "main.run"}, buildFingerprint("panic", "main.run"))
}

func Test_ShortFunctionName_DropsImportPath(t *testing.T) {
	assert.Equal(t, "blog.(*Service).GetPost", ShortFunctionName("tentspace/internal/features/blog.(*Service).GetPost"))
	assert.Equal(t, "main.main", ShortFunctionName("main.main"))
}

func Test_CollectSafely_WhenCollectorPanics_ReturnsNil(t *testing.T) {
	result := collectSafely(func() *int { panic("no screen") })

	assert.Nil(t, result)
}

func Test_PrimaryLanguage_ParsesAcceptLanguage(t *testing.T) {
	assert.Equal(t, "en-US", primaryLanguage("en-US,en;q=0.9"))
	assert.Equal(t, "fr", primaryLanguage("fr;q=0.8"))
	assert.Equal(t, "", primaryLanguage(""))
}
