// Package redisstore implements courseapp.UserStore and courseapp.CourseStore on Redis.
//
// Documents are JSON under "<prefix>:doc:user:<id>" and "<prefix>:doc:course:<id>";
// users carry their sessions embedded. Unique username and email index keys
// ("<prefix>:idx:username:<name>", "<prefix>:idx:email:<email>") are claimed
// atomically at insert time and are immutable afterwards. Courses are listed in
// insertion order through the "<prefix>:idx:courses" sorted set, scored from the
// "<prefix>:seq:course" counter.
package redisstore
