// internal/cmdid/doc.go

/*
Package cmdid identifies submitted commands.

The canonical form is `<queue>.<kind>[<seq>]`, e.g. `gpu0.cg[12]` for the
twelfth command group submitted to queue `gpu0` or `host.fill[3]` for a fill
command. Sequence numbers are assigned per queue in submission order, so
ordering two IDs of one queue orders their submissions.
*/
package cmdid
