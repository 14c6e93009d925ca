// Package mongostore implements courseapp.UserStore and courseapp.CourseStore on MongoDB.
//
// Users live in the "users" collection with their sessions embedded; username and
// email carry unique indexes. Courses live in "courses". Ids are ObjectID hex strings
// at the API boundary and ObjectIDs in the documents, including the user's courseIds
// references. Malformed ids are reported as not found.
package mongostore
