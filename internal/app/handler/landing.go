package handler

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/amethyst/internal/app/dispatch"
)

var landingTemplate = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>amethyst</title>
</head>
<body>
{{- if .NotFound}}
<div class="banner" role="alert">That link does not exist.</div>
{{- end}}
<h1>amethyst</h1>
<form id="create">
<input name="url" type="text" placeholder="https://example.com" required>
<input name="path" type="text" placeholder="custom slug (optional)">
<button type="submit">Shorten</button>
</form>
<script>
document.getElementById("create").addEventListener("submit", async (e) => {
  e.preventDefault();
  const f = new FormData(e.target);
  const body = {url: f.get("url")};
  if (f.get("path")) body.path = f.get("path");
  const r = await fetch("/api/create", {method: "POST", headers: {"Content-Type": "application/json"}, body: JSON.stringify(body)});
  const out = document.getElementById("result");
  out.textContent = r.status === 202 ? (await r.json()).url : "Could not shorten that URL.";
});
</script>
<p id="result"></p>
</body>
</html>
`))

type landingData struct {
	NotFound bool
}

// Landing renders the front page. ?code=404 shows the not-found banner
// the dispatcher redirects unknown slugs to.
func Landing(logger *zap.Logger) http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		data := landingData{NotFound: req.URL.Query().Get("code") == dispatch.NotFoundCode}

		res.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := landingTemplate.Execute(res, data); err != nil {
			logger.Error("render landing page", zap.Error(err))
		}
	}
}
