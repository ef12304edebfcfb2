package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/relay-service/internal/entity"
	"github.com/user/relay-service/internal/extractor"
)

const scriptPage = `<!DOCTYPE html>
<html>
<head><title>Preview</title></head>
<body>
<div id="fullpage"><p>from the DOM</p></div>
<script>
var data = {"id":42,"content":"<section class=\"article\"><p>from script</p></section><p>tail</p>"};
</script>
</body>
</html>`

const domOnlyPage = `<!DOCTYPE html>
<html>
<body>
<script>window.ready = true;</script>
<div id="fullpage"><p>from the DOM</p></div>
</body>
</html>`

const emptyPage = `<!DOCTYPE html><html><body><p>nothing here</p></body></html>`

func TestExtract(t *testing.T) {
	t.Parallel()

	t.Run("auto prefers script data over a matching selector", func(t *testing.T) {
		t.Parallel()

		res, err := extractor.Extract(scriptPage, "#fullpage", entity.ModeAuto)

		require.NoError(t, err)
		assert.Equal(t, entity.StrategyScriptData, res.UsedStrategy)
		assert.Equal(t, entity.NoSelector, res.UsedSelector)
		assert.Equal(t, `<section class="article"><p>from script</p></section><p>tail</p>`, res.Content)
	})

	t.Run("script data narrows to selector match inside the extracted content", func(t *testing.T) {
		t.Parallel()

		res, err := extractor.Extract(scriptPage, "section.article", entity.ModeScriptData)

		require.NoError(t, err)
		assert.Equal(t, entity.StrategyScriptData, res.UsedStrategy)
		assert.Equal(t, "section.article", res.UsedSelector)
		assert.Equal(t, "<p>from script</p>", res.Content)
	})

	t.Run("script data without a selector returns the whole content", func(t *testing.T) {
		t.Parallel()

		res, err := extractor.Extract(scriptPage, "", entity.ModeScriptData)

		require.NoError(t, err)
		assert.Equal(t, entity.NoSelector, res.UsedSelector)
		assert.Contains(t, res.Content, "from script")
	})

	t.Run("non-matching selector returns script content", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><script>var data = {"content":"<p>hi</p>"};</script></body></html>`

		res, err := extractor.Extract(html, "#none-matching", entity.ModeAuto)

		require.NoError(t, err)
		assert.Equal(t, "<p>hi</p>", res.Content)
		assert.Equal(t, entity.StrategyScriptData, res.UsedStrategy)
		assert.Equal(t, entity.NoSelector, res.UsedSelector)
	})

	t.Run("auto falls back to selector when no script data exists", func(t *testing.T) {
		t.Parallel()

		res, err := extractor.Extract(domOnlyPage, "#fullpage", entity.ModeAuto)

		require.NoError(t, err)
		assert.Equal(t, entity.StrategySelector, res.UsedStrategy)
		assert.Equal(t, "#fullpage", res.UsedSelector)
		assert.Equal(t, "<p>from the DOM</p>", res.Content)
	})

	t.Run("selector mode ignores script data", func(t *testing.T) {
		t.Parallel()

		res, err := extractor.Extract(scriptPage, "#fullpage", entity.ModeSelector)

		require.NoError(t, err)
		assert.Equal(t, entity.StrategySelector, res.UsedStrategy)
		assert.Equal(t, "<p>from the DOM</p>", res.Content)
	})

	t.Run("script-data mode does not fall back to the selector", func(t *testing.T) {
		t.Parallel()

		_, err := extractor.Extract(domOnlyPage, "#fullpage", entity.ModeScriptData)

		var notFound *entity.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, entity.ModeScriptData, notFound.Mode)
	})

	t.Run("nothing matches in any mode", func(t *testing.T) {
		t.Parallel()

		for _, mode := range []entity.Mode{entity.ModeSelector, entity.ModeScriptData, entity.ModeAuto} {
			_, err := extractor.Extract(emptyPage, "#fullpage", mode)

			var notFound *entity.NotFoundError
			require.ErrorAs(t, err, &notFound, "mode %s", mode)
			assert.Equal(t, entity.KindNotFound, entity.KindOf(err))
		}
	})

	t.Run("selector match with empty inner HTML is not found", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><div id="fullpage">   </div></body></html>`

		_, err := extractor.Extract(html, "#fullpage", entity.ModeSelector)

		var notFound *entity.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "#fullpage", notFound.Selector)
	})

	t.Run("malformed script JSON falls through to the selector in auto mode", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<script>var data = {content: '<p>not json</p>'};</script>
<div id="fullpage"><p>dom</p></div>
</body></html>`

		res, err := extractor.Extract(html, "#fullpage", entity.ModeAuto)

		require.NoError(t, err)
		assert.Equal(t, entity.StrategySelector, res.UsedStrategy)
		assert.Equal(t, "<p>dom</p>", res.Content)
	})

	t.Run("script data without content field falls through", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<script>var data = {"title":"only a title"};</script>
<div id="fullpage"><p>dom</p></div>
</body></html>`

		res, err := extractor.Extract(html, "#fullpage", entity.ModeAuto)

		require.NoError(t, err)
		assert.Equal(t, entity.StrategySelector, res.UsedStrategy)
	})

	t.Run("only the first var data script is considered", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<script>  var data = {"content":"<p>first</p>"};</script>
<script>var data = {"content":"<p>second</p>"};</script>
</body></html>`

		res, err := extractor.Extract(html, "", entity.ModeScriptData)

		require.NoError(t, err)
		assert.Equal(t, "<p>first</p>", res.Content)
	})

	t.Run("content containing the terminator sequence is recovered", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<script>var data = {"content":"<style>p{color:red};</style><p>styled</p>","author":"x"};
var other = 1;</script>
</body></html>`

		res, err := extractor.Extract(html, "", entity.ModeScriptData)

		require.NoError(t, err)
		assert.Equal(t, "<style>p{color:red};</style><p>styled</p>", res.Content)
	})

	t.Run("multi-line script data is parsed", func(t *testing.T) {
		t.Parallel()

		html := "<html><body><script>var data = {\n  \"content\": \"<p>multi</p>\",\n  \"id\": 1\n};</script></body></html>"

		res, err := extractor.Extract(html, "", entity.ModeScriptData)

		require.NoError(t, err)
		assert.Equal(t, "<p>multi</p>", res.Content)
	})

	t.Run("rejects an invalid selector", func(t *testing.T) {
		t.Parallel()

		_, err := extractor.Extract(domOnlyPage, "div[", entity.ModeSelector)

		var validation *entity.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "selector", validation.Field)
	})

	t.Run("selector mode requires a selector", func(t *testing.T) {
		t.Parallel()

		_, err := extractor.Extract(domOnlyPage, "", entity.ModeSelector)

		assert.Equal(t, entity.KindValidation, entity.KindOf(err))
	})
}
