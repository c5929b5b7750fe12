// Package mail sends queued messages: a gomail SMTP sender and the send
// loop that walks the non-deferred part of the queue block by block.
package mail
