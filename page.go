package main

import (
	"html/template"
	"net/http"
)

// pageHandler serves a browser client that negotiates, subscribes and
// prints every broadcast it receives.
type pageHandler struct {
	cfg config
}

type templateArgs struct {
	Hub, Target string
}

func (ph pageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	webTemplate.Execute(w, templateArgs{ph.cfg.Hub, ph.cfg.Target})
}

var webTemplate = template.Must(template.New("webTemplate").Parse(`<html>
<head>
<title>taxirelay {{.Hub}}</title>
<style type="text/css">
body { margin: 0; padding: 0.5em; background: gray; font-family: monospace; }
#log { background: white; padding: 0.5em; height: 90%; overflow: auto; }
</style>
</head>
<body>
<h3>Broadcasts on hub {{.Hub}}</h3>
<div id="log"></div>
<script type="text/javascript">
(function() {
    var target = {{.Target}};
    var log = document.getElementById("log");

    function appendLog(text, bold) {
        var d = document.createElement("div");
        if (bold) {
            d.style.fontWeight = "bold";
        }
        d.textContent = text;
        var doScroll = log.scrollTop == log.scrollHeight - log.clientHeight;
        log.appendChild(d);
        if (doScroll) {
            log.scrollTop = log.scrollHeight - log.clientHeight;
        }
    }

    if (!window["WebSocket"]) {
        appendLog("Your browser does not support WebSockets.", true);
        return;
    }

    fetch("/negotiate", {method: "POST"}).then(function(resp) {
        if (!resp.ok) {
            throw new Error("negotiate: " + resp.status);
        }
        return resp.json();
    }).then(function(info) {
        var conn = new WebSocket(info.url + "&access_token=" + encodeURIComponent(info.accessToken));
        conn.onclose = function() {
            appendLog("Connection closed.", true);
        };
        conn.onmessage = function(evt) {
            var frame = JSON.parse(evt.data);
            if (frame.target === target) {
                frame.arguments.forEach(function(a) { appendLog(a, false); });
            }
        };
    }).catch(function(err) {
        appendLog(err.message, true);
    });
})();
</script>
</body>
</html>
`))
