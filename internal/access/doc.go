/*
Package access defines accessors: capability tokens declaring how a command
uses a region of a storage object.

An accessor is one concrete type parameterised by a mode (read, write,
read_write, discard_write, discard_read_write, atomic) and a target
(global_buffer, constant_buffer, local, host_buffer). Which combinations are
legal is decided by a small table of per-target rules rather than by a type
per combination.

At dispatch time accessors are flattened into Views: a byte slice, its
row-major layout and the covered region. Payloads read and write elements
through Load, Store and the atomic helpers.
*/
package access
