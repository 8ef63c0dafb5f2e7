package views

import (
	"context"
	"fmt"
	"html/template"
	"io"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/a-h/templ"
)

var bracketPage = template.Must(template.New("bracket").Funcs(template.FuncMap{
	"slot":      func(d BracketData, m bracket.Match, side string) string { return d.SlotLabel(m, bracket.Side(side)) },
	"roundName": func(d BracketData, r int) string { return d.RoundName(r) },
	"winner":    func(m bracket.Match, side string) bool { return m.IsWinner(bracket.Side(side)) },
	"loser":     func(m bracket.Match, side string) bool { return m.IsLoser(bracket.Side(side)) },
	"isBye":     func(m bracket.Match, side string) bool { return m.Slot(bracket.Side(side)).Kind == bracket.SlotBye },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Data.Tournament.Title}} bracket</title>
<link rel="stylesheet" href="/static/css/bracket.css">
</head>
<body data-tournament="{{.Data.Tournament.ID}}">
<header>
<h1>{{.Data.Tournament.Title}}</h1>
<p class="meta">{{.Data.Tournament.Game}} &middot; {{.Data.Tournament.Status}}</p>
{{with .Data.Champion}}<p class="champion">Champion: {{.Name}}</p>{{end}}
</header>
{{if not .Data.RoundNums}}<p class="empty">The bracket has not been generated yet.</p>{{end}}
<main class="bracket">
{{range $r := .Data.RoundNums}}<section class="round" data-round="{{$r}}">
<h2>{{roundName $.Data $r}}</h2>
{{range index $.Data.Rounds $r}}<div class="match{{if .IsBye}} bye{{end}}{{if .Ready}} ready{{end}}" id="match-{{.ID}}">
<div class="slot{{if winner . "a"}} winner{{end}}{{if loser . "a"}} loser{{end}}{{if isBye . "a"}} bye{{end}}">{{slot $.Data . "a"}}{{if not .IsBye}} <span class="score">{{.ScoreA}}</span>{{end}}</div>
<div class="slot{{if winner . "b"}} winner{{end}}{{if loser . "b"}} loser{{end}}{{if isBye . "b"}} bye{{end}}">{{slot $.Data . "b"}}{{if not .IsBye}} <span class="score">{{.ScoreB}}</span>{{end}}</div>
{{if and $.Admin .Ready}}<form method="post" action="/admin/matches/{{.ID}}/result" class="result">
<input type="number" name="score_a" min="0" value="0"> <input type="number" name="score_b" min="0" value="0">
<button name="winner" value="a">{{slot $.Data . "a"}} wins</button>
<button name="winner" value="b">{{slot $.Data . "b"}} wins</button>
</form>{{end}}
</div>
{{end}}</section>
{{end}}</main>
<script>
new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/tournaments/{{.Data.Tournament.ID}}/live")
  .onmessage = function () { location.reload(); };
</script>
</body>
</html>
`))

// BracketPage renders the bracket as a page of rounds. Admins get result forms on playable matches.
func BracketPage(data BracketData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if data.Tournament == nil {
			return fmt.Errorf("bracket page needs a tournament")
		}
		return bracketPage.Execute(w, struct {
			Data  BracketData
			Admin bool
		}{
			Data:  data,
			Admin: GetUser(ctx).IsAdmin(),
		})
	})
}
