package api

import "net/http"

// indexHTML is a minimal chat page for poking at the API from a browser.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>macOS Tahoe Q&amp;A</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 640px; margin: 2rem auto; padding: 0 1rem; }
#log { white-space: pre-wrap; border: 1px solid #ccc; border-radius: 6px; padding: 1rem; min-height: 12rem; }
form { display: flex; gap: .5rem; margin-top: 1rem; }
input { flex: 1; padding: .5rem; }
</style>
</head>
<body>
<h1>macOS Tahoe Q&amp;A</h1>
<div id="log"></div>
<form id="f">
<input id="q" placeholder="Ask about macOS Tahoe" autocomplete="off">
<button>Send</button>
</form>
<script>
let sessionId = "";
const log = document.getElementById("log");
document.getElementById("f").addEventListener("submit", async (e) => {
  e.preventDefault();
  const q = document.getElementById("q").value.trim();
  if (!q) return;
  document.getElementById("q").value = "";
  log.textContent += "You: " + q + "\n";
  const res = await fetch("/api/v1/chat", {
    method: "POST",
    headers: { "Content-Type": "application/json" },
    body: JSON.stringify({ question: q, session_id: sessionId }),
  });
  const data = await res.json();
  if (!res.ok) {
    log.textContent += "Error: " + (data.message || res.status) + "\n\n";
    return;
  }
  sessionId = data.session_id;
  log.textContent += "Bot: " + data.answer + "\n\n";
});
</script>
</body>
</html>
`

// index serves the embedded chat page.
func index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}
