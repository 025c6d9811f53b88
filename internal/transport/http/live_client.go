package httpserver

import (
	"html"
	"strings"
)

const waitingPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Markdown Preview</title>
</head>
<body>
<p>Waiting for a Markdown buffer&hellip;</p>
</body>
</html>
`

// liveClient keeps the page in sync with render messages. The socket
// outlives the DOM swap, so the client itself only runs once. Scripts that
// arrive with a render (mermaid) are re-created so they execute, and
// external ones are fetched only the first time.
const liveClient = `<script>
(function () {
  var loaded = {};
  Array.prototype.forEach.call(document.scripts, function (s) {
    if (s.src) loaded[s.src] = true;
  });
  function drawDiagrams() {
    if (window.mermaid && window.mermaid.run) {
      window.mermaid.run({ querySelector: ".mermaid" });
    }
  }
  function runScripts() {
    document.querySelectorAll("script").forEach(function (old) {
      if (old.src && loaded[old.src]) return;
      var s = document.createElement("script");
      for (var i = 0; i < old.attributes.length; i++) {
        s.setAttribute(old.attributes[i].name, old.attributes[i].value);
      }
      if (old.src) {
        loaded[old.src] = true;
        s.async = false;
        s.onload = drawDiagrams;
      } else {
        s.text = old.text;
      }
      old.replaceWith(s);
    });
    drawDiagrams();
  }
  function setBase(href) {
    var el = document.querySelector("base");
    if (!href) { if (el) el.remove(); return; }
    if (!el) { el = document.createElement("base"); document.head.prepend(el); }
    el.setAttribute("href", href);
  }
  function apply(msg) {
    var doc = new DOMParser().parseFromString(msg.html, "text/html");
    document.head.innerHTML = doc.head.innerHTML;
    document.body.innerHTML = doc.body.innerHTML;
    setBase(msg.base);
    runScripts();
  }
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  var rev = 0;
  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type === "render" && msg.rev > rev) {
      rev = msg.rev;
      apply(msg);
    } else if (msg.type === "detach") {
      document.title = "[detached] " + document.title;
    }
  };
})();
</script>`

// injectLiveClient adds the base href and the live client to page.
func injectLiveClient(page string, base string) string {
	if page == "" {
		page = waitingPage
	}

	if base != "" {
		tag := `<base href="` + html.EscapeString(base) + `">`
		if i := strings.Index(page, "<head>"); i >= 0 {
			i += len("<head>")
			page = page[:i] + "\n" + tag + page[i:]
		} else {
			page = tag + page
		}
	}

	if i := strings.LastIndex(page, "</body>"); i >= 0 {
		return page[:i] + liveClient + "\n" + page[i:]
	}
	return page + liveClient
}
