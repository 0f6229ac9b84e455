// Package job defines the job model and the filesystem resources a job owns.
//
// A Job pairs an audio source (remote episode reference or uploaded file)
// with recognition settings. Its Workspace is the scratch directory every
// stage writes into; cleanup is guaranteed to run exactly once on every
// termination path. The upload Registry stores uploaded audio until a job
// claims it, at which point the job's cleanup covers the upload too.
package job
