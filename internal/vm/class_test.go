package vm

import "testing"

// TestClassConstructionAndMethodCall exercises §4.6 instance construction
// (calling the class invokes `init`) and method dispatch through the new
// OP_INVOKE fused call path.
func TestClassConstructionAndMethodCall(t *testing.T) {
	v := run(t, `
		class Point {
			init(x, y) {
				self.x = x;
				self.y = y;
			}
			sum() {
				return self.x + self.y;
			}
		}
		let p = Point(3, 4);
		return p.sum();
	`)
	number(t, v, 7)
}

// TestInheritanceAndSuperCall exercises §4.6's method resolution chain and
// `super` dispatch.
func TestInheritanceAndSuperCall(t *testing.T) {
	v := run(t, `
		class Animal {
			init(name) {
				self.name = name;
			}
			speak() {
				return self.name + " makes a sound";
			}
		}
		class Dog extends Animal {
			speak() {
				return super.speak() + " (bark)";
			}
		}
		let d = Dog("Rex");
		return d.speak();
	`)
	str(t, v, "Rex makes a sound (bark)")
}

// TestInheritedMethodResolvesThroughSuperclass verifies a subclass that
// doesn't override a method still resolves it through the superclass chain.
func TestInheritedMethodResolvesThroughSuperclass(t *testing.T) {
	v := run(t, `
		class Animal {
			init(name) {
				self.name = name;
			}
			speak() {
				return self.name + " makes a sound";
			}
		}
		class Dog extends Animal {
		}
		let d = Dog("Rex");
		return d.speak();
	`)
	str(t, v, "Rex makes a sound")
}
