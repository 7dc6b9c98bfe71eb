package runner

// EngineVersion is the rig engine version, recorded on every journaled run.
const EngineVersion = "0.1.0"
