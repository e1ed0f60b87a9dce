// Package photos stores photo attachment rows. Upload status tracking
// follows the two-phase attachment model: a row exists (and the photo is
// displayable) as soon as the local record is created; the cloud mirror
// marks it uploaded later.
package photos
