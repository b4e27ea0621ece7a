package web

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"

	"github.com/valerio/jeebie-shelf/shelf/launcher"
	"github.com/valerio/jeebie-shelf/shelf/library"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeOK(w http.ResponseWriter, fields func(e *jx.Encoder)) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("ok")
		e.Bool(true)
		if fields != nil {
			fields(e)
		}
		e.ObjEnd()
	})
}

func strField(e *jx.Encoder, name, value string) {
	e.FieldStart(name)
	e.Str(value)
}

func strArray(e *jx.Encoder, values []string) {
	e.ArrStart()
	for _, v := range values {
		e.Str(v)
	}
	e.ArrEnd()
}

func encodeItem(e *jx.Encoder, it library.Item) {
	e.ObjStart()
	strField(e, "filename", it.Filename)
	strField(e, "slug", it.Slug)
	strField(e, "title", it.Title)
	e.FieldStart("size")
	e.Int64(it.SizeBytes)
	strField(e, "hash", it.ContentHash)
	e.FieldStart("color")
	e.Bool(it.IsColorVariant)
	strField(e, "cover", it.CoverURL)
	e.FieldStart("screenshots")
	strArray(e, it.Screenshots)
	e.FieldStart("recordings")
	strArray(e, it.Recordings)
	e.ObjEnd()
}

func encodeTicket(e *jx.Encoder, t launcher.Ticket) {
	e.ObjStart()
	strField(e, "ticket", t.ID.String())
	strField(e, "rom", t.ROM)
	strField(e, "started_at", t.StartedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
}
