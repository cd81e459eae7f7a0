package httpGateway

const apiLevel = "/api/v1/"
const internalStatus = apiLevel + "stat"
const linkStatus = apiLevel + "status"
const listenerStart = apiLevel + "listener/start"
const listenerStop = apiLevel + "listener/stop"
const control = apiLevel + "control"
const samples = apiLevel + "samples"
const sessions = apiLevel + "sessions"
