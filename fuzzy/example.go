package fuzzy

import "github.com/google/uuid"

// Names of the variables in the built-in flocking model. The host
// sensors write the inputs and the behaviour system reads the outputs.
const (
	VarNeighborCount   = "neighbor_count"
	VarNearestDistance = "nearest_distance"
	VarNearestBearing  = "nearest_bearing"
	VarSpeed           = "speed"
	VarTurn            = "turn"
	VarThrottle        = "throttle"
)

// FlockingModel builds the default model: avoid near neighbours, steer
// toward distant ones, and hold cruising speed. radius is the perception
// radius and bounds the distance domain; maxNeighbors bounds the count
// domain; maxSpeed bounds the speed domain.
func FlockingModel(radius, maxNeighbors, maxSpeed float64) *Model {
	count := NewVariable(VarNeighborCount, 0, maxNeighbors)
	dist := NewVariable(VarNearestDistance, 0, radius)
	bearing := NewVariable(VarNearestBearing, -180, 180)
	speed := NewVariable(VarSpeed, 0, maxSpeed)
	turn := NewVariable(VarTurn, -1, 1)
	throttle := NewVariable(VarThrottle, 0, 1)

	few := NewTriangle(count, "few", 0, 0, maxNeighbors/4)
	many := NewTrapezoid(count, "many", maxNeighbors/8, maxNeighbors/2, maxNeighbors, maxNeighbors)
	near := NewTriangle(dist, "close", 0, 0, radius*0.4)
	far := NewTrapezoid(dist, "far", radius*0.3, radius*0.8, radius, radius)
	left := NewTrapezoid(bearing, "left", -180, -180, -60, 0)
	ahead := NewTriangle(bearing, "ahead", -45, 0, 45)
	right := NewTrapezoid(bearing, "right", 0, 60, 180, 180)
	slow := NewTriangle(speed, "slow", 0, 0, maxSpeed/2)
	fast := NewTriangle(speed, "fast", maxSpeed/2, maxSpeed, maxSpeed)

	turnLeft := NewTriangle(turn, "left", -1, -1, 0)
	turnStraight := NewTriangle(turn, "straight", -0.5, 0, 0.5)
	turnRight := NewTriangle(turn, "right", 0, 1, 1)
	brake := NewTriangle(throttle, "brake", 0, 0, 0.5)
	cruise := NewTriangle(throttle, "cruise", 0.25, 0.5, 0.75)
	boost := NewTriangle(throttle, "boost", 0.5, 1, 1)

	m := &Model{
		Name:    "flocking",
		Inputs:  []Variable{count, dist, bearing, speed},
		Outputs: []Variable{turn, throttle},
		Values: []VariableValue{
			few, many, near, far, left, ahead, right, slow, fast,
			turnLeft, turnStraight, turnRight, brake, cruise, boost,
		},
	}

	// avoid: near and (left or ahead) -> turn right; near and right ->
	// turn left; near -> brake.
	avoid := NewDrive("avoid")
	{
		inClose := avoid.AddInput(dist, near)
		inLeft := avoid.AddInput(bearing, left)
		inAhead := avoid.AddInput(bearing, ahead)
		inRight := avoid.AddInput(bearing, right)
		leftish := avoid.AddOperator(KindOr)
		toRight := avoid.AddOperator(KindAnd)
		toLeft := avoid.AddOperator(KindAnd)
		outRight := avoid.AddOutput(turn, turnRight)
		outLeft := avoid.AddOutput(turn, turnLeft)
		outBrake := avoid.AddOutput(throttle, brake)
		mustConnect(avoid,
			inLeft, leftish,
			inAhead, leftish,
			inClose, toRight,
			leftish, toRight,
			toRight, outRight,
			inClose, toLeft,
			inRight, toLeft,
			toLeft, outLeft,
			inClose, outBrake,
		)
	}

	// cohesion: far and few -> boost; far and left -> turn left; far and
	// right -> turn right.
	cohesion := NewDrive("cohesion")
	{
		inFar := cohesion.AddInput(dist, far)
		inFew := cohesion.AddInput(count, few)
		inLeft := cohesion.AddInput(bearing, left)
		inRight := cohesion.AddInput(bearing, right)
		lonely := cohesion.AddOperator(KindAnd)
		farLeft := cohesion.AddOperator(KindAnd)
		farRight := cohesion.AddOperator(KindAnd)
		outBoost := cohesion.AddOutput(throttle, boost)
		outLeft := cohesion.AddOutput(turn, turnLeft)
		outRight := cohesion.AddOutput(turn, turnRight)
		mustConnect(cohesion,
			inFar, lonely,
			inFew, lonely,
			lonely, outBoost,
			inFar, farLeft,
			inLeft, farLeft,
			farLeft, outLeft,
			inFar, farRight,
			inRight, farRight,
			farRight, outRight,
		)
	}

	// cruise: not near -> cruise throttle and hold course; slow or
	// crowded -> boost; fast -> brake.
	cruiseDrive := NewDrive("cruise")
	{
		inClose := cruiseDrive.AddInput(dist, near)
		inMany := cruiseDrive.AddInput(count, many)
		inSlow := cruiseDrive.AddInput(speed, slow)
		inFast := cruiseDrive.AddInput(speed, fast)
		open := cruiseDrive.AddOperator(KindNot)
		push := cruiseDrive.AddOperator(KindOr)
		outCruise := cruiseDrive.AddOutput(throttle, cruise)
		outStraight := cruiseDrive.AddOutput(turn, turnStraight)
		outBoost := cruiseDrive.AddOutput(throttle, boost)
		outBrake := cruiseDrive.AddOutput(throttle, brake)
		mustConnect(cruiseDrive,
			inClose, open,
			open, outCruise,
			open, outStraight,
			inSlow, push,
			inMany, push,
			push, outBoost,
			inFast, outBrake,
		)
	}

	m.AddDrive(avoid)
	m.AddDrive(cohesion)
	m.AddDrive(cruiseDrive)
	return m
}

// mustConnect wires pairs of node GUIDs. The built-in model is static,
// so a rejected edge is a programming error.
func mustConnect(d *Drive, pairs ...uuid.UUID) {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := d.Connect(pairs[i], pairs[i+1]); err != nil {
			panic(err)
		}
	}
}
